// Package admin serves the administrative spreadsheet upload endpoint.
//
// GET /upload returns the upload form. POST /upload decodes the request
// through an upload.Gate, hands the payload to an ingest.Pipeline, and
// answers in one of two response modes: a rendered HTML page for browser
// forms or a JSON body for programmatic clients. Failures from the gate
// and from the pipeline go through the same rendering path.
//
//	h := admin.NewHandler(gate, pipeline)
//	r.Mount("/admin", h.Routes())
package admin
