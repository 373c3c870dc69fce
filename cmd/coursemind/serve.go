package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"coursemind/internal/api"
	"coursemind/internal/ingest"
	"coursemind/internal/rag"
)

var (
	serveDocs  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API. On startup any course documents in the docs
folder are ingested; with --watch the folder is monitored and new or
changed documents are re-ingested while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDocs, "docs", "", "course documents folder (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "watch the docs folder for changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	system, err := rag.New(cfg)
	if err != nil {
		return err
	}
	defer system.Close()

	docsDir := serveDocs
	if docsDir == "" {
		docsDir = cfg.Ingest.DocsPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if docsDir != "" {
		if _, statErr := os.Stat(docsDir); statErr == nil {
			courses, chunks, ingErr := system.AddCourseFolder(ctx, docsDir, false)
			if ingErr != nil {
				return fmt.Errorf("startup ingestion failed: %w", ingErr)
			}
			logger.Info("startup ingestion complete",
				zap.Int("courses", courses), zap.Int("chunks", chunks))
		} else {
			logger.Warn("docs folder not found, skipping ingestion", zap.String("dir", docsDir))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	api.NewHandler(system, version).RegisterRoutes(e)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if (serveWatch || cfg.Ingest.Watch) && docsDir != "" {
		watcher, werr := ingest.NewWatcher(system.Processor(), docsDir)
		if werr != nil {
			return fmt.Errorf("failed to start docs watcher: %w", werr)
		}
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
