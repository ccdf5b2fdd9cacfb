// Package errors provides coded, actionable errors for the xcel command.
//
// Startup and command failures (bad configuration, unreachable storage,
// a missing workbook) are reported as an XcelError carrying:
//   - a stable code (e.g., "X104") that maps to a registered template
//   - a short message and a longer explanation
//   - a hint on how to fix the problem
//
// Request-time upload failures do not use this package; they are typed
// errors in pkg/upload and pkg/ingest.
//
// # Usage
//
//	err := errors.New(errors.CodeInvalidStorage).
//	    WithDetail(`XCEL_STORAGE is "ftp"`)
//
//	errors.PrintError(os.Stderr, err)
//	// Output:
//	// ERROR X104: Unknown storage backend
//	//
//	//   XCEL_STORAGE is "ftp"
//	//
//	//   Hint: Set XCEL_STORAGE to disk, s3 or none
package errors
