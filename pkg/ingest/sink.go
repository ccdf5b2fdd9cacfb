package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Row is one data row keyed by header name.
type Row struct {
	// Number is the 1-based row number within the sheet.
	Number int `json:"number"`

	// Values maps column headers to cell text.
	Values map[string]string `json:"values"`
}

// Batch is a group of rows from one sheet.
type Batch struct {
	RunID  uuid.UUID
	Source string
	Sheet  string
	Rows   []Row
}

// RowSink receives parsed rows.
type RowSink interface {
	WriteRows(ctx context.Context, b Batch) error
}

// MemorySink collects batches in memory. It is safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	batches []Batch
}

// WriteRows records the batch.
func (s *MemorySink) WriteRows(_ context.Context, b Batch) error {
	rows := make([]Row, len(b.Rows))
	copy(rows, b.Rows)
	b.Rows = rows

	s.mu.Lock()
	s.batches = append(s.batches, b)
	s.mu.Unlock()
	return nil
}

// Batches returns the recorded batches.
func (s *MemorySink) Batches() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

// Rows returns the total number of recorded rows.
func (s *MemorySink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b.Rows)
	}
	return n
}
