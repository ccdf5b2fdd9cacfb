package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xcel-dev/xcel/pkg/ingest"
	"github.com/xcel-dev/xcel/pkg/middleware"
	"github.com/xcel-dev/xcel/pkg/render"
	"github.com/xcel-dev/xcel/pkg/upload"
)

// MsgProcessed is the structured success message.
const MsgProcessed = "File processed successfully"

// Handler serves the upload form and accepts uploads.
//
// A Handler holds no per-request state and is safe for concurrent use.
type Handler struct {
	gate     *upload.Gate
	pipeline ingest.Pipeline
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler that decodes with gate and processes
// uploads with pipeline.
func NewHandler(gate *upload.Gate, pipeline ingest.Pipeline, opts ...Option) *Handler {
	h := &Handler{
		gate:     gate,
		pipeline: pipeline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "admin")
	return h
}

// Routes returns a router with GET and POST /upload, to be mounted at
// /admin.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/upload", h.ServeForm)
	r.Post("/upload", h.ServeUpload)
	return r
}

// ServeForm renders the upload form.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, render.FormPage(""))
}

// ServeUpload decodes the upload, runs the pipeline and responds in the
// mode selected for the request. Every path closes the spooled payload.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", chimw.GetReqID(r.Context()))

	up, err := h.gate.Decode(w, r)
	if err != nil {
		var ue *upload.Error
		if !errors.As(err, &ue) {
			ue = &upload.Error{Kind: upload.KindGenericFailure, Message: upload.MsgUploadFailed, Err: err}
		}
		mode := modeFor(r, ue.Fields)

		if r.Context().Err() != nil {
			logger.Info("upload canceled during decode", "mode", mode)
			middleware.RecordUpload(mode.String(), "canceled", -1)
			return
		}

		logger.Warn("upload rejected",
			"mode", mode,
			"kind", ue.Kind,
			"error", err,
		)
		h.respond(w, r, mode, failure(ue.Kind, ue.Message, ue.Status()), -1)
		return
	}
	defer up.File.Close()

	mode := modeFor(r, up.Fields)
	size := up.File.Size
	logger = logger.With("mode", mode, "filename", up.File.Filename, "size", size)

	report, err := h.pipeline.Ingest(r.Context(), up.File)
	if err != nil {
		if ingest.IsCanceled(err) && r.Context().Err() != nil {
			logger.Info("upload canceled during processing")
			middleware.RecordUpload(mode.String(), "canceled", size)
			return
		}

		status, message := http.StatusInternalServerError, err.Error()
		var ie *ingest.Error
		if errors.As(err, &ie) {
			status, message = ie.Status, ie.Message
		}
		logger.Error("upload processing failed", "status", status, "error", err)
		h.respond(w, r, mode, failure(upload.KindPipeline, message, status), size)
		return
	}

	logger.Info("upload processed")
	h.respond(w, r, mode, success(report), size)
}

// respond writes the outcome in the given mode and records it.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, mode Mode, o Outcome, size int64) {
	middleware.RecordUpload(mode.String(), o.label(), size)

	attrs := []attribute.KeyValue{
		attribute.String("upload.mode", mode.String()),
		attribute.String("upload.kind", o.label()),
	}
	if size >= 0 {
		attrs = append(attrs, attribute.Int64("upload.size", size))
	}
	if o.Report != nil {
		attrs = append(attrs,
			attribute.String("upload.run_id", o.Report.RunID),
			attribute.Int("upload.rows", o.Report.TotalRows),
		)
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attrs...)

	if mode == ModeStructured {
		writeJSON(w, o.Status, o.body())
		return
	}

	if !o.OK() {
		writeHTML(w, o.Status, render.FailurePage(render.EscapeHTML(o.Message)))
		return
	}
	writeHTML(w, o.Status, render.SuccessPage(summary(o.Report), details(o.Report)))
}

// summary describes a report in escaped HTML.
func summary(report *ingest.Report) string {
	if report == nil {
		return MsgProcessed + "."
	}
	sheets := "sheets"
	if len(report.Sheets) == 1 {
		sheets = "sheet"
	}
	return fmt.Sprintf("Processed <strong>%d</strong> rows from %d %s in %s.",
		report.TotalRows, len(report.Sheets), sheets, render.EscapeHTML(report.FileName))
}

// details is the indented JSON report. It is escaped by the renderer.
func details(report *ingest.Report) string {
	if report == nil {
		return ""
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func writeHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(page))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
