package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstogner/filechat/pkg/config"
	"github.com/nstogner/filechat/pkg/query"
	"github.com/nstogner/filechat/pkg/server"
	"github.com/nstogner/filechat/pkg/store/fs"
	"github.com/nstogner/filechat/web"
)

var (
	cfgPath string
	addr    string
	root    string
)

var rootCmd = &cobra.Command{
	Use:   "filechat",
	Short: "File-upload-driven chat backend",
	Long: `filechat serves a session/file/chat API over a filesystem-backed
store, plus an embedded web UI. Each upload creates a session directory
holding the uploaded files, a metadata record, and a chat transcript.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "Path to a YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	rootCmd.Flags().StringVar(&root, "root", "", "Session storage root directory (overrides config)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if root != "" {
		cfg.SessionRoot = root
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	st, err := fs.New(cfg.SessionRoot)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	svc := query.New(st)
	srv := server.New(st, st, svc, cfg.User, web.DistFS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
