package cmd

import (
	"context"
	"fmt"

	"collection-engine/core/config"
	"collection-engine/core/diff"
	"collection-engine/core/logger"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
	"collection-engine/core/storage"
	"collection-engine/feature/document"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the diff command
	diffFromStorage bool
	diffVerify      bool
	diffShow        int
)

// diffCmd compares two collection documents.
var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compute the edit script between two collection documents",
	Long: `Compute the minimal edit script that turns one collection document into
another and report it.

Examples:
  # Compare two local files
  diff old.yaml new.yaml

  # Compare two archived documents
  diff inbox inbox-v2 --storage

  # Replay the script against an in-memory renderer and check the result
  diff old.yaml new.yaml --verify`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffFromStorage, "storage", false, "Load documents from the object storage archive")
	diffCmd.Flags().BoolVar(&diffVerify, "verify", false, "Apply the script to an in-memory renderer and verify the result")
	diffCmd.Flags().IntVar(&diffShow, "show", 20, "Number of ops to print")

	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	load := func(name string) (*document.Document, error) {
		return document.LoadFile(name)
	}
	if diffFromStorage {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		archive := document.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.Region, l)
		load = func(name string) (*document.Document, error) {
			return archive.Load(ctx, name)
		}
	}

	oldDoc, err := load(args[0])
	if err != nil {
		return err
	}
	newDoc, err := load(args[1])
	if err != nil {
		return err
	}

	defaults, err := cfg.Engine.Defaults()
	if err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}
	oldSnap, err := oldDoc.Build(defaults, nil)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", args[0], err)
	}
	newSnap, err := newDoc.Build(defaults, oldSnap)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", args[1], err)
	}

	var script diff.Script[string]
	if diffVerify {
		script, err = verifyScript(oldSnap, newSnap)
	} else {
		script, err = diff.Diff(oldSnap, newSnap)
	}
	if err != nil {
		return err
	}

	printDiffReport(l, script, diffShow)
	if diffVerify {
		l.Info("Verified script against in-memory renderer")
	}
	return nil
}

// verifyScript renders old, reconciles to next and checks the renderer
// matches next.
func verifyScript(old, next *snapshot.Snapshot[string, any]) (diff.Script[string], error) {
	mem := reconcile.NewMemoryRenderer[string]()
	rec := reconcile.New[string, any](mem, reconcile.Options{})
	if _, err := rec.Reconcile(old); err != nil {
		return diff.Script[string]{}, fmt.Errorf("failed to render old document: %w", err)
	}
	script, err := rec.Reconcile(next)
	if err != nil {
		return diff.Script[string]{}, fmt.Errorf("failed to apply script: %w", err)
	}
	if err := reconcile.Verify(mem, next); err != nil {
		return diff.Script[string]{}, fmt.Errorf("verification failed: %w", err)
	}
	return script, nil
}

// printDiffReport prints a formatted edit script report using logger.
func printDiffReport(l *zap.Logger, script diff.Script[string], show int) {
	s := script.Summary()

	l.Info("Diff report",
		zap.Int("total", s.Total()),
		zap.Int("section_inserts", s.SectionInserts),
		zap.Int("section_removes", s.SectionRemoves),
		zap.Int("section_moves", s.SectionMoves),
		zap.Int("item_inserts", s.ItemInserts),
		zap.Int("item_removes", s.ItemRemoves),
		zap.Int("item_moves", s.ItemMoves),
		zap.Int("expansion_changes", s.ExpansionChanges),
	)

	if script.Empty() {
		l.Info("Documents render identically")
		return
	}

	n := min(show, len(script.Ops))
	for _, op := range script.Ops[:n] {
		fields := []zap.Field{
			zap.String("kind", string(op.Kind)),
			zap.String("key", op.Key),
			zap.Int("section", op.Section),
		}
		switch op.Kind {
		case diff.InsertItem, diff.RemoveItem:
			fields = append(fields, zap.Int("item", op.Item))
		case diff.MoveItem:
			fields = append(fields, zap.Int("item", op.Item), zap.Int("to_section", op.ToSection), zap.Int("to_item", op.ToItem))
		case diff.MoveSection:
			fields = append(fields, zap.Int("to_section", op.ToSection))
		}
		l.Info("Op", fields...)
	}
	if len(script.Ops) > n {
		l.Info("Additional ops not shown", zap.Int("count", len(script.Ops)-n))
	}
	for _, ch := range script.Expansion {
		l.Info("Expansion", zap.String("key", ch.Key), zap.Int("section", ch.Section), zap.Bool("expanded", ch.Expanded), zap.Bool("removed", ch.Removed))
	}
}
