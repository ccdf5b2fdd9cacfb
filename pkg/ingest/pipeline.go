package ingest

import (
	"context"
	"net/http"
	"time"

	"github.com/xcel-dev/xcel/pkg/upload"
)

// Pipeline consumes a decoded upload.
//
// Ingest must honor ctx cancellation. It reads f but does not Close it;
// the caller owns the payload.
type Pipeline interface {
	Ingest(ctx context.Context, f *upload.File) (*Report, error)
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(ctx context.Context, f *upload.File) (*Report, error)

// Ingest calls fn(ctx, f).
func (fn PipelineFunc) Ingest(ctx context.Context, f *upload.File) (*Report, error) {
	return fn(ctx, f)
}

// Report summarizes one ingestion run.
type Report struct {
	RunID       string         `json:"run_id"`
	ArchiveID   string         `json:"archive_id,omitempty"`
	FileName    string         `json:"file_name"`
	Size        int64          `json:"size"`
	Sheets      []SheetSummary `json:"sheets"`
	TotalRows   int            `json:"total_rows"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// SheetSummary describes a processed sheet.
type SheetSummary struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	Rows        int      `json:"rows"`
	SkippedRows int      `json:"skipped_rows,omitempty"`
}

// Error is a pipeline failure meant for the uploader.
type Error struct {
	// Status is the HTTP status to respond with.
	Status int

	// Message is shown to the uploader. It is not HTML-escaped.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return "ingest: " + e.Message + ": " + e.Err.Error()
	}
	return "ingest: " + e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(msg string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Err: err}
}

func internal(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
