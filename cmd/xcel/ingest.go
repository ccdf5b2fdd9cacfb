package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xcel-dev/xcel/internal/config"
	xerrors "github.com/xcel-dev/xcel/internal/errors"
	"github.com/xcel-dev/xcel/pkg/ingest"
	"github.com/xcel-dev/xcel/pkg/upload"
)

func ingestCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON    bool
		archiveID string
	)

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Process a workbook from the command line",
		Long: `Run a local workbook through the same pipeline as the upload endpoint.

The file is archived, parsed, and its rows stored exactly as if it had
been uploaded through /admin/upload. With --archive, a workbook already
in the archive is parsed again under a new run ID instead.

With --json, the report or the error is printed to stdout as JSON.

Examples:
  xcel ingest members.xlsx
  xcel ingest members.xlsx --json
  xcel ingest --archive 3f2b9c1e-5d4a-4e8f-9b7a-1c2d3e4f5a6b`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (archiveID != "") {
				return xerrors.Newf(xerrors.CategoryCLI, "give either a workbook path or --archive <id>")
			}
			src := ingestSource{archiveID: archiveID}
			if len(args) == 1 {
				src.path = args[0]
			}

			cfg, err := config.Load(flags.configDir)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, src, asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ingestion report or error as JSON")
	cmd.Flags().StringVar(&archiveID, "archive", "", "Re-process an archived upload by its archive ID")

	return cmd
}

// ingestSource names the workbook to ingest: a local path or an archive ID.
type ingestSource struct {
	path      string
	archiveID string
}

func runIngest(parent context.Context, cfg *config.Config, src ingestSource, asJSON bool, out io.Writer) error {
	report, err := ingestSourceFile(parent, cfg, src)
	if err != nil {
		if asJSON {
			fmt.Fprintln(out, xerrors.FromError(err, xerrors.CodeIngestFailed).FormatJSON())
			return errReported
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(out, report)
	return nil
}

func ingestSourceFile(parent context.Context, cfg *config.Config, src ingestSource) (*ingest.Report, error) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var f *upload.File
	if src.path != "" {
		var err error
		if f, err = openWorkbook(src.path); err != nil {
			return nil, err
		}
		defer f.Close()
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	pipeline, store, closePipeline, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closePipeline()

	if f == nil {
		if f, err = openArchived(ctx, store, src.archiveID); err != nil {
			return nil, err
		}
		defer f.Close()
	}

	report, err := pipeline.Ingest(ctx, f)
	if err != nil {
		return nil, xerrors.FromError(err, xerrors.CodeIngestFailed)
	}
	return report, nil
}

// openArchived reads a previously archived upload back from the store.
func openArchived(ctx context.Context, store upload.Store, id string) (*upload.File, error) {
	if store == nil {
		return nil, xerrors.New(xerrors.CodeArchiveDisabled)
	}
	f, err := store.Open(ctx, id)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			return nil, xerrors.New(xerrors.CodeArchiveNotFound).WithDetail("No archived upload has ID " + id + ".")
		}
		return nil, xerrors.New(xerrors.CodeIngestFailed).Wrap(err)
	}
	return f, nil
}

// openWorkbook opens a local file as an upload payload.
func openWorkbook(path string) (*upload.File, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.New(xerrors.CodeFileNotFound).WithDetail(path + " does not exist.")
		}
		return nil, xerrors.New(xerrors.CodeIngestFailed).Wrap(err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, xerrors.New(xerrors.CodeIngestFailed).Wrap(err)
	}

	name := filepath.Base(path)
	return &upload.File{
		Field:       "file",
		Filename:    name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Size:        info.Size(),
		Recognized:  true,
		Path:        path,
		Reader:      fh,
	}, nil
}

func printReport(w io.Writer, report *ingest.Report) {
	fmt.Fprintf(w, "\033[32m✓\033[0m Ingested %s\n", report.FileName)
	fmt.Fprintf(w, "  Run:      %s\n", report.RunID)
	if report.ArchiveID != "" {
		fmt.Fprintf(w, "  Archive:  %s\n", report.ArchiveID)
	}
	fmt.Fprintf(w, "  Rows:     %d\n", report.TotalRows)
	for _, s := range report.Sheets {
		line := fmt.Sprintf("  Sheet:    %s (%d rows, %d columns)", s.Name, s.Rows, len(s.Columns))
		if s.SkippedRows > 0 {
			line += fmt.Sprintf(", %d blank skipped", s.SkippedRows)
		}
		fmt.Fprintln(w, line)
	}
}
