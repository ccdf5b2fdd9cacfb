package upload

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// bodySlack is allowed on top of the file limit for multipart framing and
// ordinary form fields.
const bodySlack = 1 << 20

// Config holds configuration for a Gate.
type Config struct {
	// Field is the form field that must carry the file.
	// Default: "file".
	Field string

	// Deployment selects how the size limit is resolved.
	Deployment Deployment

	// MaxFileSizeMB is the configured ceiling in megabytes. Ignored on
	// serverless deployments. Default: DefaultMaxFileSizeMB.
	MaxFileSizeMB int

	// AllowedExtensions is the advisory extension allow-list.
	// Default: .xlsx, .xls.
	AllowedExtensions []string

	// TempDir is where payloads are spooled. Default: os.TempDir().
	TempDir string

	// MaxFieldBytes caps a single non-file field. Default: 1MB.
	MaxFieldBytes int64

	// MaxParts caps the number of multipart parts. Default: 100.
	MaxParts int

	// Logger receives gate diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config for spreadsheet uploads on a conventional
// host.
func DefaultConfig() Config {
	return Config{
		Field:             "file",
		Deployment:        Conventional,
		MaxFileSizeMB:     DefaultMaxFileSizeMB,
		AllowedExtensions: []string{".xlsx", ".xls"},
		MaxFieldBytes:     1 << 20,
		MaxParts:          100,
	}
}

// Gate decodes a multipart upload carrying exactly one file.
//
// A Gate is immutable after construction and safe for concurrent use.
type Gate struct {
	field    string
	limit    Limit
	allowed  []string
	tempDir  string
	maxField int64
	maxParts int
	logger   *slog.Logger
}

// NewGate creates a Gate. The size limit is resolved here, once.
func NewGate(cfg Config) *Gate {
	defaults := DefaultConfig()
	if cfg.Field == "" {
		cfg.Field = defaults.Field
	}
	if cfg.AllowedExtensions == nil {
		cfg.AllowedExtensions = defaults.AllowedExtensions
	}
	if cfg.MaxFieldBytes <= 0 {
		cfg.MaxFieldBytes = defaults.MaxFieldBytes
	}
	if cfg.MaxParts <= 0 {
		cfg.MaxParts = defaults.MaxParts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	allowed := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed = append(allowed, strings.ToLower(ext))
	}

	return &Gate{
		field:    cfg.Field,
		limit:    ResolveLimit(cfg.Deployment, cfg.MaxFileSizeMB),
		allowed:  allowed,
		tempDir:  cfg.TempDir,
		maxField: cfg.MaxFieldBytes,
		maxParts: cfg.MaxParts,
		logger:   cfg.Logger.With("component", "upload"),
	}
}

// Limit returns the resolved file size limit.
func (g *Gate) Limit() Limit {
	return g.limit
}

// Field returns the name of the file field.
func (g *Gate) Field() string {
	return g.field
}

// Upload is a successfully decoded request.
type Upload struct {
	// File is the spooled payload. The caller must Close it.
	File *File

	// Fields holds the non-file form values.
	Fields url.Values
}

// Decode reads the multipart body of r.
//
// On success the returned Upload owns a spooled file that the caller must
// Close. On failure the error is an *Error and nothing is left on disk.
// A request that is not multipart is treated as one without a file.
//
// When the file is too large the rest of the body is read and discarded,
// up to the body guard of limit plus 1MB, so that the client receives the
// response instead of a reset. Anything past the guard is left unread and
// the server closes the connection after responding.
func (g *Gate) Decode(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	fields := url.Values{}
	fail := func(e *Error) (*Upload, error) {
		if e.Kind == KindLimitExceeded {
			drain(r.Body)
		}
		e.Fields = fields
		return nil, e
	}

	r.Body = http.MaxBytesReader(w, r.Body, g.limit.Bytes+bodySlack)

	mr, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return fail(&Error{Kind: KindMissingFile, Message: MsgMissingFile, Field: g.field})
		}
		return fail(genericError(err, nil))
	}

	var file *File
	discard := func() {
		if file != nil {
			file.Close()
			file = nil
		}
	}

	for parts := 1; ; parts++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			discard()
			return fail(g.classify(err))
		}

		if parts > g.maxParts {
			part.Close()
			discard()
			return fail(&Error{Kind: KindDecoderRejected, Message: MsgTooManyParts})
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			discard()
			return fail(&Error{Kind: KindDecoderRejected, Message: MsgFieldNameMissing})
		}

		if part.FileName() == "" {
			value, err := g.readField(part)
			part.Close()
			if err != nil {
				discard()
				if errors.Is(err, errFieldTooLong) {
					return fail(&Error{Kind: KindDecoderRejected, Message: MsgFieldTooLong, Field: name})
				}
				return fail(g.classify(err))
			}
			fields.Add(name, value)
			continue
		}

		if name != g.field || file != nil {
			part.Close()
			discard()
			return fail(&Error{Kind: KindDecoderRejected, Message: MsgUnexpectedField, Field: name})
		}

		file, err = g.spool(part)
		part.Close()
		if err != nil {
			var ue *Error
			if errors.As(err, &ue) {
				return fail(ue)
			}
			return fail(genericError(err, nil))
		}
	}

	if file == nil {
		return fail(&Error{Kind: KindMissingFile, Message: MsgMissingFile, Field: g.field})
	}

	if !file.Recognized {
		g.logger.Warn("upload extension not in allow-list",
			"filename", file.Filename,
			"allowed", g.allowed,
		)
	}
	g.logger.Debug("upload decoded",
		"filename", file.Filename,
		"size", file.Size,
		"limit", g.limit.Label,
	)

	return &Upload{File: file, Fields: fields}, nil
}

// spool copies a file part to a temp file, enforcing the size limit.
func (g *Gate) spool(part *multipart.Part) (*File, error) {
	tmp, err := os.CreateTemp(g.tempDir, "xcel-upload-*")
	if err != nil {
		return nil, &Error{Kind: KindGenericFailure, Message: MsgUploadFailed, Err: err}
	}
	reader := newDeleteOnCloseReader(tmp)

	// +1 to detect overflow
	n, err := io.Copy(tmp, io.LimitReader(part, g.limit.Bytes+1))
	if err != nil {
		reader.Close()
		return nil, g.classify(err)
	}
	if n > g.limit.Bytes {
		reader.Close()
		return nil, &Error{Kind: KindLimitExceeded, Message: g.limit.TooLargeMessage(), Field: part.FormName()}
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		reader.Close()
		return nil, &Error{Kind: KindGenericFailure, Message: MsgUploadFailed, Err: err}
	}

	filename := part.FileName()
	return &File{
		Field:       part.FormName(),
		Filename:    filename,
		ContentType: part.Header.Get("Content-Type"),
		Size:        n,
		Recognized:  g.recognized(filename),
		Path:        tmp.Name(),
		Reader:      reader,
	}, nil
}

// drain discards what is left of a guarded body. The guard bounds the read.
func drain(body io.Reader) {
	io.Copy(io.Discard, body)
}

var errFieldTooLong = errors.New("upload: field value too long")

func (g *Gate) readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, g.maxField+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > g.maxField {
		return "", errFieldTooLong
	}
	return string(data), nil
}

// classify maps a read error to a decode failure.
func (g *Gate) classify(err error) *Error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &Error{Kind: KindLimitExceeded, Message: g.limit.TooLargeMessage(), Err: err}
	}
	return genericError(err, nil)
}

func (g *Gate) recognized(filename string) bool {
	if len(g.allowed) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range g.allowed {
		if ext == a {
			return true
		}
	}
	return false
}
