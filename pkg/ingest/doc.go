// Package ingest processes uploaded workbooks.
//
// Pipeline is the boundary the admin upload handler calls once a file has
// been decoded. WorkbookPipeline is the default implementation: it archives
// the original file in an upload.Store, walks every sheet with excelize,
// treats the first row of each sheet as the header, and hands data rows to
// a RowSink in batches. PGSink persists rows to PostgreSQL with COPY.
//
// Errors that should reach the uploader are returned as *Error, which
// carries the HTTP status and the message to display.
package ingest
