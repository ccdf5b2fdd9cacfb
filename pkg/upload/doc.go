// Package upload decodes spreadsheet uploads and archives them.
//
// # The Gate
//
// A Gate reads a multipart/form-data request that must carry exactly one
// file under a known field (default "file"). It streams the file to a temp
// file while enforcing a size limit, collects the ordinary form fields, and
// classifies every failure into a Kind:
//
//   - KindLimitExceeded: file larger than the resolved limit
//   - KindDecoderRejected: unexpected or repeated file field, missing field
//     name, oversized field, too many parts
//   - KindGenericFailure: anything else that went wrong reading the body
//   - KindMissingFile: no file under the expected field
//
// The limit is resolved once, when the Gate is built, from the Deployment
// and the configured size:
//
//	gate := upload.NewGate(upload.Config{
//	    Deployment:    upload.Serverless, // always 4MB, reported as "4MB (Vercel)"
//	    MaxFileSizeMB: 25,                // used only on Conventional hosts
//	})
//
// Decoding hands ownership of the spooled payload to the caller:
//
//	up, err := gate.Decode(w, r)
//	if err != nil {
//	    var ue *upload.Error
//	    errors.As(err, &ue) // ue.Kind, ue.Message, ue.Status()
//	    return
//	}
//	defer up.File.Close() // deletes the temp file
//
// The extension allow-list (.xlsx, .xls) is advisory. A mismatch is logged
// and recorded on File.Recognized; whatever consumes the file decides
// whether it can be parsed.
//
// # Archive Stores
//
// Store is implemented by DiskStore and S3Store. The ingestion pipeline
// saves each accepted workbook so it can be reprocessed, and Cleanup
// enforces a retention window.
package upload
