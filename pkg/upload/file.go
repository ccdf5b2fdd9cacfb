package upload

import (
	"errors"
	"io"
	"os"
	"sync"
)

// File represents an uploaded file, either a payload just decoded from a
// request or one read back from a Store.
type File struct {
	// ID is the archive identifier. Empty for freshly decoded payloads.
	ID string

	// Field is the form field the file arrived under.
	Field string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the MIME type declared by the client.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Recognized reports whether the filename matched the allowed
	// extensions. It is advisory; the pipeline decides what it can parse.
	Recognized bool

	// Path is the local filesystem path, when the payload lives on disk.
	Path string

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Read reads from the payload.
func (f *File) Read(p []byte) (int, error) {
	if f.Reader == nil {
		return 0, io.EOF
	}
	return f.Reader.Read(p)
}

// Rewind seeks the payload back to its first byte so it can be read again.
func (f *File) Rewind() error {
	s, ok := f.Reader.(io.Seeker)
	if !ok {
		return errors.New("upload: payload is not seekable")
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Close releases the payload. Spooled payloads are deleted from disk.
// Close is safe to call more than once.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// deleteOnCloseReader wraps a file and deletes it, plus any sidecar
// paths, when closed.
type deleteOnCloseReader struct {
	*os.File
	paths []string

	once sync.Once
	err  error
}

func newDeleteOnCloseReader(f *os.File, extra ...string) *deleteOnCloseReader {
	return &deleteOnCloseReader{File: f, paths: append([]string{f.Name()}, extra...)}
}

func (r *deleteOnCloseReader) Close() error {
	r.once.Do(func() {
		r.err = r.File.Close()
		for _, p := range r.paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) && r.err == nil {
				r.err = err
			}
		}
	})
	return r.err
}
