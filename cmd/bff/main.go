// Package main は BFF サーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yourusername/snippet-bff/internal/config"
	"github.com/yourusername/snippet-bff/internal/logging"
	"github.com/yourusername/snippet-bff/internal/metrics"
	"github.com/yourusername/snippet-bff/internal/sessionstore"
	"github.com/yourusername/snippet-bff/internal/upstream"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type options struct {
	envFile string
	port    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "snippet-bff",
		Short:        "Backend-for-frontend that bridges browser sessions to the snippet API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load before reading the environment")
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	// 設定の読み込み
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.port != "" {
		cfg.Port = opts.port
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --port: %w", err)
		}
	}

	logger, err := logging.New(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// セッションストアの設定
	store, closer, err := sessionstore.New(ctx, cfg)
	if err != nil {
		logger.Errorw("failed to set up session store", "store", cfg.SessionStore, "error", err)
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warnw("failed to close session store", "error", err)
		}
	}()

	m := metrics.New(true)
	client := upstream.New(cfg.APIURL,
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithObserver(m),
		upstream.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, store, client, m, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// サーバーの起動
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("starting BFF server",
			"addr", srv.Addr,
			"mode", cfg.GinMode,
			"upstream", cfg.APIURL,
			"session_store", cfg.SessionStore,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorw("server stopped", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
