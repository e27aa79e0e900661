package document_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"collection-engine/core/errs"
	"collection-engine/core/identity"
	"collection-engine/core/snapshot"
	"collection-engine/feature/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inbox = `
name: inbox
sections:
  - key: today
    items:
      - key: 1
        value: {title: "Write report"}
      - key: 2
        value: {title: "Call bank"}
  - key: later
    expansion: collapsed
    items: [alpha, beta]
  - key: 2024
    expansion: none
    items: []
`

func TestParse_YAML(t *testing.T) {
	d, err := document.Parse([]byte(inbox))
	require.NoError(t, err)
	assert.Equal(t, "inbox", d.Name)
	require.Len(t, d.Sections, 3)

	inputs, err := d.Inputs()
	require.NoError(t, err)

	assert.Equal(t, "today", inputs[0].Key)
	assert.Equal(t, []string{"1", "2"}, identity.Keys(inputs[0].Items))
	assert.Equal(t, map[string]any{"title": "Write report"}, inputs[0].Items[0].Value)
	assert.Equal(t, snapshot.Unspecified, inputs[0].Expansion)

	assert.Equal(t, []string{"alpha", "beta"}, identity.Keys(inputs[1].Items))
	assert.Equal(t, "alpha", inputs[1].Items[0].Value)
	assert.Equal(t, snapshot.Collapsed, inputs[1].Expansion)

	assert.Equal(t, "2024", inputs[2].Key)
	assert.Equal(t, snapshot.NotExpandable, inputs[2].Expansion)
	assert.Empty(t, inputs[2].Items)
}

func TestParse_JSON(t *testing.T) {
	d, err := document.Parse([]byte(`{"sections":[{"key":"a","items":[{"key":10,"value":"x"},{"key":"b"}]}]}`))
	require.NoError(t, err)

	inputs, err := d.Inputs()
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, []string{"10", "b"}, identity.Keys(inputs[0].Items))
}

func TestInputs_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"MissingSectionKey", "sections: [{items: [a]}]"},
		{"BadExpansion", "sections: [{key: a, expansion: sideways}]"},
		{"NonScalarItemKey", "sections: [{key: a, items: [{key: [1, 2]}]}]"},
		{"EmptyItem", "sections: [{key: a, items: [{value: null}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := document.Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = d.Inputs()
			assert.Error(t, err)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := document.Parse([]byte("sections: [unterminated"))
	assert.Error(t, err)
}

func TestBuild_DuplicateKeys(t *testing.T) {
	d, err := document.Parse([]byte("sections: [{key: a, items: [x]}, {key: b, items: [x]}]"))
	require.NoError(t, err)

	_, err = d.Build(nil, nil)
	assert.True(t, errors.Is(err, errs.ErrDuplicateKey))
}

func TestFromSnapshot_RoundTrip(t *testing.T) {
	d, err := document.Parse([]byte(inbox))
	require.NoError(t, err)
	s, err := d.Build(nil, nil)
	require.NoError(t, err)

	out, err := document.FromSnapshot("inbox", s).Marshal()
	require.NoError(t, err)

	again, err := document.Parse(out)
	require.NoError(t, err)
	s2, err := again.Build(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, s.SectionKeys(), s2.SectionKeys())
	assert.Equal(t, s.Expansions(), s2.Expansions())
	for i := range s.Sections() {
		assert.Equal(t, identity.Keys(s.Sections()[i].Items), identity.Keys(s2.Sections()[i].Items))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(p, []byte("sections: [{key: a, items: [x, y]}]"), 0o644))

	d, err := document.LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, p, d.Name)
	assert.Len(t, d.Sections[0].Items, 2)

	_, err = document.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
