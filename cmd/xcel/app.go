package main

import (
	"context"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xcel-dev/xcel/internal/config"
	xerrors "github.com/xcel-dev/xcel/internal/errors"
	"github.com/xcel-dev/xcel/pkg/ingest"
	"github.com/xcel-dev/xcel/pkg/upload"
)

// newLogger builds the process logger from the log settings.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// openStore returns the archive store selected by the configuration, or
// nil when archiving is disabled.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (upload.Store, error) {
	maxSize := upload.ResolveLimit(cfg.Deployment(), cfg.Upload.MaxFileSizeMB).Bytes

	switch cfg.Storage.Backend {
	case config.StorageNone:
		logger.Info("upload archiving disabled")
		return nil, nil

	case config.StorageS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, xerrors.New(xerrors.CodeS3Config).Wrap(err)
		}
		logger.Info("archiving uploads to S3", "bucket", cfg.Storage.Bucket, "prefix", cfg.Storage.Prefix)
		return upload.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Prefix, maxSize), nil

	default:
		store, err := upload.NewDiskStore(cfg.Storage.Dir, maxSize)
		if err != nil {
			return nil, xerrors.New(xerrors.CodeArchiveDir).
				WithDetail("Could not create " + cfg.Storage.Dir).
				Wrap(err)
		}
		logger.Info("archiving uploads to disk", "dir", store.Dir())
		return store, nil
	}
}

// newPipeline wires the workbook pipeline to the configured store and, when
// a database is configured, a Postgres row sink. The returned cleanup
// releases the database pool.
func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ingest.WorkbookPipeline, upload.Store, func(), error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []ingest.Option{ingest.WithLogger(logger)}
	if store != nil {
		opts = append(opts, ingest.WithStore(store))
	}

	cleanup := func() {}
	if cfg.Database.URL != "" {
		sink, err := ingest.NewPGSink(ctx, cfg.Database.URL,
			ingest.WithTable(cfg.Database.Table),
			ingest.WithPGLogger(logger),
		)
		if err != nil {
			return nil, nil, nil, xerrors.New(xerrors.CodeDatabase).Wrap(err)
		}
		opts = append(opts, ingest.WithSink(sink))
		cleanup = sink.Close
		logger.Info("storing rows in Postgres")
	} else {
		logger.Warn("DATABASE_URL not set; rows are counted but not stored")
	}

	return ingest.NewWorkbookPipeline(opts...), store, cleanup, nil
}
