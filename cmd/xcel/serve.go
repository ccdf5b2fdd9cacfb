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

	"github.com/spf13/cobra"

	"github.com/xcel-dev/xcel/internal/config"
	xerrors "github.com/xcel-dev/xcel/internal/errors"
	"github.com/xcel-dev/xcel/pkg/admin"
	"github.com/xcel-dev/xcel/pkg/upload"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr       string
		maxSizeMB  int
		serverless bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin upload server",
		Long: `Start the HTTP server hosting the admin upload endpoint.

Routes:
  GET  /admin/upload   upload form
  POST /admin/upload   multipart upload (field "file")
  GET  /healthz        health check
  GET  /metrics        Prometheus metrics

Configuration is read from xcel.json, then the environment
(VERCEL, MAX_FILE_SIZE_MB, XCEL_*, DATABASE_URL), then flags.

Examples:
  xcel serve
  xcel serve --addr=:9000 --max-file-size=50
  VERCEL=1 xcel serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configDir)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-file-size") {
				cfg.Upload.MaxFileSizeMB = maxSizeMB
			}
			if serverless {
				cfg.Upload.Serverless = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config, :8080)")
	cmd.Flags().IntVar(&maxSizeMB, "max-file-size", 0, "Maximum upload size in MB (default from config, 25)")
	cmd.Flags().BoolVar(&serverless, "serverless", false, "Enforce the serverless 4MB upload ceiling")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	pipeline, store, closePipeline, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePipeline()

	gate := upload.NewGate(cfg.GateConfig(logger))
	handler := admin.NewHandler(gate, pipeline, admin.WithLogger(logger))

	router := newRouter(handler, routerOptions{
		serveMetrics: cfg.Metrics.Addr == "",
		metrics:      metricsOptions(cfg.Metrics),
		deployment:   cfg.Deployment().String(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	if store != nil && cfg.Retention() > 0 && cfg.CleanupInterval() > 0 {
		go runRetention(ctx, store, cfg.Retention(), cfg.CleanupInterval(), logger)
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("Listening on %s", srv.Addr)
	info("Upload limit %s", gate.Limit().Label)
	if metricsSrv != nil {
		info("Metrics on %s", metricsSrv.Addr)
	}
	fmt.Println()

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if metricsSrv != nil {
		go func() {
			errCh <- metricsSrv.ListenAndServe()
		}()
	}

	logger.Info("server started",
		"addr", srv.Addr,
		"deployment", cfg.Deployment(),
		"limit", gate.Limit().Label,
		"storage", cfg.Storage.Backend,
	)

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = xerrors.New(xerrors.CodeServeFailed).Wrap(err)
		}
	}

	fmt.Println("\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
	return serveErr
}
