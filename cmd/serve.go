package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"collection-engine/core/config"
	"collection-engine/core/database"
	"collection-engine/core/loader"
	"collection-engine/core/logger"
	"collection-engine/core/server"
	"collection-engine/core/storage"
	"collection-engine/feature/collection"
	"collection-engine/feature/document"
	"collection-engine/feature/expansion"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collection server",
	Long: `Starts the HTTP server exposing collection sessions.

The database and object storage are optional. Without a database, section
toggles are not persisted. Without storage, export, refresh and paging are
disabled.`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	// Persisted expansions (optional)
	var repo expansion.Repository
	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed, toggles will not persist", zap.Error(err))
	} else {
		store := expansion.NewStore(db, logg)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		if err := store.CheckSchema(); err != nil {
			logg.Warn("Expansion schema check failed", zap.Error(err))
		}
		repo = expansion.NewCachedStore(store, cfg.Engine.CacheTTL())
		logg.Info("Connected to expansion database", zap.String("driver", cfg.Database.Driver))
	}

	// Document archive (optional)
	var archive *document.Archive
	if client, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Warn("Optional storage client failed, archive disabled", zap.Error(err))
	} else {
		archive = document.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.Region, logg)
	}

	svc, err := collection.NewService(cfg.Engine, archive, repo, logg)
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	app := server.New(cfg.Server, logg)

	mgr := loader.NewManager()
	mgr.Register(collection.NewFeature(svc))
	if err := mgr.LoadAll(app); err != nil {
		return err
	}

	go func() {
		logg.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logg.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logg.Info("Shutting down server...")
	return app.Shutdown()
}
