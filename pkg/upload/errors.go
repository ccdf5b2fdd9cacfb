package upload

import (
	"errors"
	"net/http"
	"net/url"
)

// ErrNotFound is returned when an archived file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned by a Store when a file exceeds its size limit.
var ErrTooLarge = errors.New("upload: file too large")

// Kind classifies why an upload was not accepted. The string values are
// part of the structured response contract.
type Kind string

const (
	// KindLimitExceeded means the file (or the request body) was larger
	// than the resolved limit.
	KindLimitExceeded Kind = "DecodeLimitExceeded"

	// KindDecoderRejected covers decoder validation failures: unexpected
	// or repeated file fields, missing field names, oversized fields.
	KindDecoderRejected Kind = "DecodeOtherMulterError"

	// KindGenericFailure is any other failure while reading the upload.
	KindGenericFailure Kind = "DecodeGenericFailure"

	// KindMissingFile means decoding succeeded but no file was sent under
	// the expected field.
	KindMissingFile Kind = "MissingFile"

	// KindPipeline marks errors raised after decoding by the ingestion
	// pipeline.
	KindPipeline Kind = "PipelineError"
)

// Decoder rejection messages.
const (
	MsgUnexpectedField  = "Unexpected field"
	MsgFieldNameMissing = "Field name missing"
	MsgFieldTooLong     = "Field value too long"
	MsgTooManyParts     = "Too many parts"
	MsgUploadFailed     = "File upload failed"
	MsgMissingFile      = "No file uploaded. Please upload an Excel file (.xlsx or .xls)."
)

// Error is a decode-stage failure.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Message is safe to show to the uploader. It is not HTML-escaped.
	Message string

	// Field is the form field involved, if any.
	Field string

	// Fields holds the non-file form values read before the failure.
	Fields url.Values

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return "upload: " + string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return "upload: " + string(e.Kind) + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the failure. Every decode-stage
// failure is the client's to fix.
func (e *Error) Status() int {
	return http.StatusBadRequest
}

// genericError builds a KindGenericFailure from err, using its text as the
// message when it has one.
func genericError(err error, fields url.Values) *Error {
	msg := MsgUploadFailed
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Kind: KindGenericFailure, Message: msg, Fields: fields, Err: err}
}
