package cmd

import (
	"context"
	"fmt"
	"time"

	"collection-engine/core/config"
	"collection-engine/core/logger"
	"collection-engine/core/storage"
	"collection-engine/feature/document"
	"collection-engine/feature/terminal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	browseFromStorage bool
	browsePageSize    int
	browseMaxPages    int
	browseDelay       time.Duration
	browseLogFile     string
)

// browseCmd opens a document in the interactive terminal browser.
var browseCmd = &cobra.Command{
	Use:   "browse <document>",
	Short: "Browse a collection document in the terminal",
	Long: `Open a collection document in an interactive terminal list.

Sections can be collapsed, items dragged between sections, and scrolling to
the end of the last section loads generated pages. Pressing r reloads the
document from its source.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseFromStorage, "storage", false, "Load the document from the object storage archive")
	browseCmd.Flags().IntVar(&browsePageSize, "page-size", terminal.DefaultPageSize, "Items generated per page")
	browseCmd.Flags().IntVar(&browseMaxPages, "max-pages", 3, "Pages to generate before the list is exhausted (0 = unlimited)")
	browseCmd.Flags().DurationVar(&browseDelay, "delay", 300*time.Millisecond, "Simulated page load latency")
	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "Write logs to this file")

	RootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal owns stdout, so logs go to a file or nowhere.
	l := zap.NewNop()
	if browseLogFile != "" {
		logCfg := cfg.Log
		logCfg.Output = browseLogFile
		if l, err = logger.New(&logCfg); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()
	}

	name := args[0]
	reload := func(ctx context.Context) (*document.Document, error) {
		return document.LoadFile(name)
	}
	if browseFromStorage {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		archive := document.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.Region, l)
		reload = func(ctx context.Context) (*document.Document, error) {
			return archive.Load(ctx, name)
		}
	}

	doc, err := reload(ctx)
	if err != nil {
		return err
	}

	defaults, err := cfg.Engine.Defaults()
	if err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}

	m, err := terminal.New(doc, terminal.Options{
		Threshold: cfg.Engine.NearEndThreshold,
		Defaults:  defaults,
		PageSize:  browsePageSize,
		MaxPages:  browseMaxPages,
		LoadDelay: browseDelay,
		Reload:    reload,
		Logger:    l,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	m.SetSend(p.Send)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal browser failed: %w", err)
	}
	return nil
}
