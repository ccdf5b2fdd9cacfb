package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table PGSink writes to.
const DefaultTable = "workbook_rows"

var rowColumns = []string{"run_id", "source", "sheet", "row_number", "data", "ingested_at"}

// PGSink writes rows to Postgres with COPY.
type PGSink struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
	now    func() time.Time
}

// PGOption configures a PGSink.
type PGOption func(*PGSink)

// WithTable overrides the destination table.
func WithTable(name string) PGOption {
	return func(s *PGSink) {
		if name != "" {
			s.table = name
		}
	}
}

// WithPGLogger sets the logger.
func WithPGLogger(logger *slog.Logger) PGOption {
	return func(s *PGSink) {
		s.logger = logger
	}
}

// NewPGSink connects to dsn, verifies the connection, and creates the
// destination table if needed.
func NewPGSink(ctx context.Context, dsn string, opts ...PGOption) (*PGSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("ingest: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ingest: ping: %w", err)
	}

	s := &PGSink{
		pool:   pool,
		table:  DefaultTable,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "pgsink", "table", s.table)

	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the destination table and its run index.
func (s *PGSink) EnsureSchema(ctx context.Context) error {
	table := pgx.Identifier{s.table}.Sanitize()
	index := pgx.Identifier{s.table + "_run_id_idx"}.Sanitize()

	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
	run_id      UUID        NOT NULL,
	source      TEXT        NOT NULL,
	sheet       TEXT        NOT NULL,
	row_number  INTEGER     NOT NULL,
	data        JSONB       NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ingest: create table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS `+index+` ON `+table+` (run_id)`); err != nil {
		return fmt.Errorf("ingest: create index: %w", err)
	}
	return nil
}

// WriteRows copies the batch into the destination table.
func (s *PGSink) WriteRows(ctx context.Context, b Batch) error {
	if len(b.Rows) == 0 {
		return nil
	}
	values, err := copyRows(b, s.now().UTC())
	if err != nil {
		return err
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, rowColumns, pgx.CopyFromRows(values))
	if err != nil {
		return fmt.Errorf("ingest: copy rows: %w", err)
	}
	s.logger.Debug("rows copied", "run_id", b.RunID, "sheet", b.Sheet, "rows", n)
	return nil
}

// Close releases the connection pool.
func (s *PGSink) Close() {
	s.pool.Close()
}

// copyRows converts a batch into COPY values ordered as rowColumns.
func copyRows(b Batch, at time.Time) ([][]any, error) {
	values := make([][]any, 0, len(b.Rows))
	runID := b.RunID.String()
	for _, r := range b.Rows {
		data, err := json.Marshal(r.Values)
		if err != nil {
			return nil, fmt.Errorf("ingest: encode row %d: %w", r.Number, err)
		}
		values = append(values, []any{runID, b.Source, b.Sheet, int32(r.Number), data, at})
	}
	return values, nil
}
