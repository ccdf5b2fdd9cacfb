package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/xcel-dev/xcel/pkg/ingest"
	"github.com/xcel-dev/xcel/pkg/upload"
)

// writeWorkbook saves a workbook built from sheets (name -> rows) and
// returns it as an upload payload.
func writeWorkbook(t *testing.T, sheets map[string][][]any, order ...string) *upload.File {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	for i, name := range order {
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := wb.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			values := row
			if err := wb.SetSheetRow(name, cell, &values); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return openPayload(t, path, "members.xlsx")
}

func openPayload(t *testing.T, path, name string) *upload.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	file := &upload.File{
		Field:       "file",
		Filename:    name,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        info.Size(),
		Recognized:  true,
		Path:        path,
		Reader:      f,
	}
	t.Cleanup(func() { file.Close() })
	return file
}

func TestWorkbookPipeline_Ingest(t *testing.T) {
	f := writeWorkbook(t, map[string][][]any{
		"Members": {
			{"name", "email", "ward"},
			{"Ada", "ada@example.com", 3},
			{" ", ""},
			{"Grace", "grace@example.com", 7},
		},
		"Wards": {
			{"ward", "captain"},
			{3, "Linus"},
		},
	}, "Members", "Wards")

	sink := &ingest.MemorySink{}
	p := ingest.NewWorkbookPipeline(ingest.WithSink(sink))

	report, err := p.Ingest(context.Background(), f)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if report.RunID == "" {
		t.Error("expected run ID")
	}
	if report.ArchiveID != "" {
		t.Errorf("expected no archive ID without a store, got %q", report.ArchiveID)
	}
	if report.FileName != "members.xlsx" {
		t.Errorf("FileName = %q", report.FileName)
	}
	if report.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", report.TotalRows)
	}
	if len(report.Sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(report.Sheets))
	}

	members := report.Sheets[0]
	if members.Name != "Members" || members.Rows != 2 || members.SkippedRows != 1 {
		t.Errorf("unexpected Members summary: %+v", members)
	}
	if strings.Join(members.Columns, ",") != "name,email,ward" {
		t.Errorf("Columns = %v", members.Columns)
	}
	if report.CompletedAt.Before(report.StartedAt) {
		t.Error("CompletedAt before StartedAt")
	}

	if sink.Rows() != 3 {
		t.Fatalf("sink rows = %d, want 3", sink.Rows())
	}
	first := sink.Batches()[0]
	if first.Sheet != "Members" || first.Source != "members.xlsx" {
		t.Errorf("unexpected batch: sheet=%q source=%q", first.Sheet, first.Source)
	}
	if first.RunID.String() != report.RunID {
		t.Errorf("batch run ID %s != report run ID %s", first.RunID, report.RunID)
	}
	row := first.Rows[1]
	if row.Number != 4 {
		t.Errorf("row number = %d, want 4", row.Number)
	}
	if row.Values["email"] != "grace@example.com" || row.Values["ward"] != "7" {
		t.Errorf("unexpected values: %v", row.Values)
	}
}

func TestWorkbookPipeline_Archives(t *testing.T) {
	f := writeWorkbook(t, map[string][][]any{
		"Sheet": {{"id"}, {1}},
	}, "Sheet")

	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	p := ingest.NewWorkbookPipeline(ingest.WithStore(store))
	report, err := p.Ingest(context.Background(), f)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.ArchiveID == "" {
		t.Fatal("expected archive ID")
	}

	archived, err := store.Open(context.Background(), report.ArchiveID)
	if err != nil {
		t.Fatalf("Open archived: %v", err)
	}
	defer archived.Close()
	if archived.Filename != "members.xlsx" || archived.Size != f.Size {
		t.Errorf("unexpected archive: %+v", archived)
	}
}

func TestWorkbookPipeline_RejectedUploadIsNotArchived(t *testing.T) {
	tests := []struct {
		name string
		file func(t *testing.T) *upload.File
		sink ingest.RowSink
	}{
		{
			name: "not a workbook",
			file: func(t *testing.T) *upload.File {
				path := filepath.Join(t.TempDir(), "x.xlsx")
				if err := os.WriteFile(path, []byte("not a workbook"), 0644); err != nil {
					t.Fatal(err)
				}
				return openPayload(t, path, "x.xlsx")
			},
		},
		{
			name: "empty workbook",
			file: func(t *testing.T) *upload.File {
				return writeWorkbook(t, map[string][][]any{"Sheet": {{"id"}}}, "Sheet")
			},
		},
		{
			name: "sink failure",
			file: func(t *testing.T) *upload.File {
				return writeWorkbook(t, map[string][][]any{"Sheet": {{"id"}, {1}}}, "Sheet")
			},
			sink: failingSink{err: errors.New("connection reset")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := upload.NewDiskStore(dir, 0)
			if err != nil {
				t.Fatal(err)
			}

			opts := []ingest.Option{ingest.WithStore(store)}
			if tt.sink != nil {
				opts = append(opts, ingest.WithSink(tt.sink))
			}
			if _, err := ingest.NewWorkbookPipeline(opts...).Ingest(context.Background(), tt.file(t)); err == nil {
				t.Fatal("expected Ingest to fail")
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("archive has %d entries after a rejected upload, want 0", len(entries))
			}
		})
	}
}

func TestWorkbookPipeline_ReprocessesArchivedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := upload.NewDiskStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}

	p := ingest.NewWorkbookPipeline(ingest.WithStore(store))
	first, err := p.Ingest(ctx, writeWorkbook(t, map[string][][]any{"Sheet": {{"id"}, {1}, {2}}}, "Sheet"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	archived, err := store.Open(ctx, first.ArchiveID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer archived.Close()

	second, err := p.Ingest(ctx, archived)
	if err != nil {
		t.Fatalf("Ingest archived: %v", err)
	}
	if second.ArchiveID != first.ArchiveID {
		t.Errorf("ArchiveID = %q, want the original %q", second.ArchiveID, first.ArchiveID)
	}
	if second.RunID == first.RunID || second.TotalRows != 2 {
		t.Errorf("unexpected report: %+v", second)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("archive has %d entries, want the single original file and its metadata", len(entries))
	}
}

func TestWorkbookPipeline_BatchSize(t *testing.T) {
	rows := [][]any{{"n"}}
	for i := 1; i <= 5; i++ {
		rows = append(rows, []any{i})
	}
	f := writeWorkbook(t, map[string][][]any{"Numbers": rows}, "Numbers")

	sink := &ingest.MemorySink{}
	p := ingest.NewWorkbookPipeline(ingest.WithSink(sink), ingest.WithBatchSize(2))
	if _, err := p.Ingest(context.Background(), f); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	batches := sink.Batches()
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[2].Rows) != 1 {
		t.Errorf("last batch has %d rows, want 1", len(batches[2].Rows))
	}
}

func TestWorkbookPipeline_Failures(t *testing.T) {
	t.Run("empty workbook", func(t *testing.T) {
		f := writeWorkbook(t, map[string][][]any{"Sheet": nil}, "Sheet")
		_, err := ingest.NewWorkbookPipeline().Ingest(context.Background(), f)
		assertIngestError(t, err, http.StatusBadRequest, ingest.MsgEmptyWorkbook)
	})

	t.Run("header only", func(t *testing.T) {
		f := writeWorkbook(t, map[string][][]any{"Sheet": {{"name", "email"}}}, "Sheet")
		_, err := ingest.NewWorkbookPipeline().Ingest(context.Background(), f)
		assertIngestError(t, err, http.StatusBadRequest, ingest.MsgEmptyWorkbook)
	})

	t.Run("not a workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.xlsx")
		if err := os.WriteFile(path, []byte("name,email\nAda,ada@example.com\n"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := ingest.NewWorkbookPipeline().Ingest(context.Background(), openPayload(t, path, "notes.xlsx"))
		assertIngestError(t, err, http.StatusBadRequest, ingest.MsgUnreadable)
	})

	t.Run("sink failure", func(t *testing.T) {
		f := writeWorkbook(t, map[string][][]any{"Sheet": {{"id"}, {1}}}, "Sheet")
		sink := failingSink{err: errors.New("connection reset")}
		_, err := ingest.NewWorkbookPipeline(ingest.WithSink(sink)).Ingest(context.Background(), f)
		assertIngestError(t, err, http.StatusInternalServerError, ingest.MsgSinkFailed)
		if !errors.Is(err, sink.err) {
			t.Error("expected sink error to be wrapped")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		f := writeWorkbook(t, map[string][][]any{"Sheet": {{"id"}, {1}}}, "Sheet")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ingest.NewWorkbookPipeline().Ingest(ctx, f)
		if !ingest.IsCanceled(err) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	})
}

type failingSink struct {
	err error
}

func (s failingSink) WriteRows(context.Context, ingest.Batch) error {
	return s.err
}

func assertIngestError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var ie *ingest.Error
	if !errors.As(err, &ie) {
		t.Fatalf("expected *ingest.Error, got %T: %v", err, err)
	}
	if ie.Status != status {
		t.Errorf("Status = %d, want %d", ie.Status, status)
	}
	if ie.Message != message {
		t.Errorf("Message = %q, want %q", ie.Message, message)
	}
}

func TestPipelineFunc(t *testing.T) {
	want := &ingest.Report{RunID: "fixed"}
	var p ingest.Pipeline = ingest.PipelineFunc(func(ctx context.Context, f *upload.File) (*ingest.Report, error) {
		return want, nil
	})
	got, err := p.Ingest(context.Background(), &upload.File{})
	if err != nil || got != want {
		t.Fatalf("got %v, %v", got, err)
	}
}
