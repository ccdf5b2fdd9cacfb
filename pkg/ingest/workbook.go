package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/xcel-dev/xcel/pkg/upload"
)

// DefaultBatchSize is the number of rows handed to a RowSink at once.
const DefaultBatchSize = 500

// Messages reported to the uploader.
const (
	MsgUnreadable    = "Unable to read Excel file. Make sure it is a valid .xlsx workbook."
	MsgEmptyWorkbook = "Excel file is empty"
	MsgArchiveFailed = "Failed to store uploaded file"
	MsgSinkFailed    = "Failed to save spreadsheet rows"
)

// WorkbookPipeline archives and parses uploaded workbooks.
type WorkbookPipeline struct {
	store     upload.Store
	sink      RowSink
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a WorkbookPipeline.
type Option func(*WorkbookPipeline)

// WithStore archives each upload before parsing it.
func WithStore(store upload.Store) Option {
	return func(p *WorkbookPipeline) {
		p.store = store
	}
}

// WithSink sends parsed rows to sink.
func WithSink(sink RowSink) Option {
	return func(p *WorkbookPipeline) {
		p.sink = sink
	}
}

// WithBatchSize sets the number of rows per sink batch.
func WithBatchSize(n int) Option {
	return func(p *WorkbookPipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *WorkbookPipeline) {
		p.logger = logger
	}
}

// NewWorkbookPipeline creates a pipeline. Without a store nothing is
// archived; without a sink rows are only counted.
func NewWorkbookPipeline(opts ...Option) *WorkbookPipeline {
	p := &WorkbookPipeline{
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "ingest")
	return p
}

// Ingest archives f, then reads every sheet and streams its rows to the
// sink. If the workbook is rejected the archive entry is deleted again.
//
// A file that came out of the store (f.ID is set) is not archived twice;
// its ID is reported and the archive is left in place on failure.
func (p *WorkbookPipeline) Ingest(ctx context.Context, f *upload.File) (*Report, error) {
	runID := uuid.New()
	report := &Report{
		RunID:     runID.String(),
		ArchiveID: f.ID,
		FileName:  f.Filename,
		Size:      f.Size,
		Sheets:    []SheetSummary{},
		StartedAt: p.now().UTC(),
	}
	logger := p.logger.With("run_id", report.RunID, "filename", f.Filename)

	if p.store != nil && f.ID == "" {
		id, err := p.archive(ctx, f)
		if err != nil {
			return nil, err
		}
		report.ArchiveID = id
		logger.Debug("upload archived", "archive_id", id)

		if err := p.parse(ctx, f, runID, report); err != nil {
			p.discard(ctx, id, logger)
			return nil, err
		}
	} else if err := p.parse(ctx, f, runID, report); err != nil {
		return nil, err
	}

	report.CompletedAt = p.now().UTC()
	logger.Info("workbook ingested",
		"archive_id", report.ArchiveID,
		"sheets", len(report.Sheets),
		"rows", report.TotalRows,
		"duration", report.CompletedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (p *WorkbookPipeline) archive(ctx context.Context, f *upload.File) (string, error) {
	id, err := p.store.Save(ctx, f.Filename, f.ContentType, f.Size, f.Reader)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", internal(MsgArchiveFailed, err)
	}
	if err := f.Rewind(); err != nil {
		p.discard(ctx, id, p.logger)
		return "", internal(MsgArchiveFailed, err)
	}
	return id, nil
}

// discard deletes an archive entry for a rejected upload. It runs even
// when ctx is already canceled.
func (p *WorkbookPipeline) discard(ctx context.Context, id string, logger *slog.Logger) {
	if err := p.store.Delete(context.WithoutCancel(ctx), id); err != nil && !errors.Is(err, upload.ErrNotFound) {
		logger.Error("failed to delete rejected upload", "archive_id", id, "error", err)
		return
	}
	logger.Debug("rejected upload removed from archive", "archive_id", id)
}

func (p *WorkbookPipeline) parse(ctx context.Context, f *upload.File, runID uuid.UUID, report *Report) error {
	wb, err := excelize.OpenReader(f)
	if err != nil {
		return badRequest(MsgUnreadable, err)
	}
	defer wb.Close()

	for _, sheet := range wb.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return err
		}

		summary, err := p.readSheet(ctx, wb, runID, f.Filename, sheet)
		if err != nil {
			return err
		}
		report.Sheets = append(report.Sheets, summary)
		report.TotalRows += summary.Rows
	}

	if report.TotalRows == 0 {
		return badRequest(MsgEmptyWorkbook, nil)
	}
	return nil
}

func (p *WorkbookPipeline) readSheet(ctx context.Context, wb *excelize.File, runID uuid.UUID, source, sheet string) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet, Columns: []string{}}

	rows, err := wb.Rows(sheet)
	if err != nil {
		return summary, badRequest(MsgUnreadable, err)
	}
	defer rows.Close()

	batch := Batch{RunID: runID, Source: source, Sheet: sheet}
	flush := func() error {
		if len(batch.Rows) == 0 {
			return nil
		}
		if p.sink != nil {
			if err := p.sink.WriteRows(ctx, batch); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return internal(MsgSinkFailed, err)
			}
		}
		batch.Rows = batch.Rows[:0]
		return nil
	}

	var header []string
	number := 0
	for rows.Next() {
		number++
		cols, err := rows.Columns()
		if err != nil {
			return summary, badRequest(MsgUnreadable, err)
		}

		if header == nil {
			if blank(cols) {
				continue
			}
			header = headerNames(cols)
			summary.Columns = header
			continue
		}

		if blank(cols) {
			summary.SkippedRows++
			continue
		}

		batch.Rows = append(batch.Rows, Row{Number: number, Values: record(header, cols)})
		summary.Rows++

		if len(batch.Rows) >= p.batchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := rows.Error(); err != nil {
		return summary, badRequest(MsgUnreadable, err)
	}

	if err := flush(); err != nil {
		return summary, err
	}
	return summary, nil
}

// headerNames trims header cells and fills blanks or duplicates with
// positional names.
func headerNames(cols []string) []string {
	names := make([]string, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c)
		if name == "" || seen[name] {
			name = "column_" + strconv.Itoa(i+1)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// record maps a row onto header names. Cells beyond the header get
// positional names.
func record(header, cols []string) map[string]string {
	values := make(map[string]string, len(cols))
	for i, c := range cols {
		key := "column_" + strconv.Itoa(i+1)
		if i < len(header) {
			key = header[i]
		}
		values[key] = strings.TrimSpace(c)
	}
	return values
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsCanceled reports whether err is the result of a canceled or expired
// request context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
