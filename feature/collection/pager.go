package collection

import (
	"context"
	"fmt"

	"collection-engine/core/identity"
	"collection-engine/core/snapshot"
	"collection-engine/feature/document"
)

// Pager supplies the pages appended when a collection scrolls near its end.
// page starts at 1.
type Pager interface {
	Page(ctx context.Context, name string, page int) (*document.Document, error)
}

// ArchivePager reads pages from a document archive.
type ArchivePager struct {
	Archive *document.Archive
}

// PageName returns the archived name of a page.
func PageName(name string, page int) string {
	return fmt.Sprintf("%s-page-%d", name, page)
}

// Page implements Pager.
func (p ArchivePager) Page(ctx context.Context, name string, page int) (*document.Document, error) {
	return p.Archive.Load(ctx, PageName(name, page))
}

// appendPage appends the sections of page to base. Items of a section already
// present are appended to it; new sections go at the end.
func appendPage(base, page []snapshot.Input[string, any]) []snapshot.Input[string, any] {
	out := make([]snapshot.Input[string, any], len(base), len(base)+len(page))
	index := make(map[string]int, len(base))
	for i, in := range base {
		in.Items = append([]identity.Item[string, any]{}, in.Items...)
		out[i] = in
		index[in.Key] = i
	}
	for _, in := range page {
		if i, ok := index[in.Key]; ok {
			out[i].Items = append(out[i].Items, in.Items...)
			continue
		}
		index[in.Key] = len(out)
		out = append(out, in)
	}
	return out
}
