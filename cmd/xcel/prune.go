package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xcel-dev/xcel/internal/config"
	xerrors "github.com/xcel-dev/xcel/internal/errors"
)

func pruneCmd(flags *globalFlags) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove archived uploads past retention",
		Long: `Remove archived uploads older than the retention period.

The server runs the same sweep periodically; prune runs it once.

Examples:
  xcel prune
  xcel prune --older-than=72h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configDir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("older-than") {
				if olderThan < 0 {
					return xerrors.New(xerrors.CodeInvalidDuration).WithDetail("--older-than must not be negative.")
				}
				cfg.Storage.Retention = olderThan.String()
			}
			return runPrune(cmd.Context(), cfg)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Remove archives older than this (default from config)")

	return cmd
}

func runPrune(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if store == nil {
		warn("Archiving is disabled; nothing to prune")
		return nil
	}

	maxAge := cfg.Retention()
	if maxAge <= 0 {
		warn("Retention is unlimited; nothing to prune")
		return nil
	}

	if err := store.Cleanup(ctx, maxAge); err != nil {
		return xerrors.New(xerrors.CodeArchiveCleanup).Wrap(err)
	}
	success("Removed archives older than %s", maxAge)
	return nil
}
