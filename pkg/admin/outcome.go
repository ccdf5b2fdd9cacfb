package admin

import (
	"net/http"

	"github.com/xcel-dev/xcel/pkg/ingest"
	"github.com/xcel-dev/xcel/pkg/upload"
)

// Outcome is the result of one upload request. It is built once and
// consumed once by respond.
type Outcome struct {
	Status  int
	Kind    upload.Kind // empty on success
	Message string
	Report  *ingest.Report
}

func success(report *ingest.Report) Outcome {
	return Outcome{Status: http.StatusOK, Message: MsgProcessed, Report: report}
}

func failure(kind upload.Kind, message string, status int) Outcome {
	return Outcome{Status: status, Kind: kind, Message: message}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Kind == ""
}

// label is the outcome kind as used in metrics and traces.
func (o Outcome) label() string {
	if o.OK() {
		return "success"
	}
	return string(o.Kind)
}

// response is the structured body.
type response struct {
	Success bool           `json:"success"`
	Kind    upload.Kind    `json:"kind,omitempty"`
	Message string         `json:"message"`
	Data    *ingest.Report `json:"data,omitempty"`
}

func (o Outcome) body() response {
	return response{
		Success: o.OK(),
		Kind:    o.Kind,
		Message: o.Message,
		Data:    o.Report,
	}
}
