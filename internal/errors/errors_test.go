package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    CodeInvalidStorage,
			wantMsg: "Unknown storage backend",
			wantCat: CategoryConfig,
		},
		{
			name:    "storage error",
			code:    CodeArchiveDir,
			wantMsg: "Archive directory unavailable",
			wantCat: CategoryStorage,
		},
		{
			name:    "database error",
			code:    CodeDatabase,
			wantMsg: "Database unavailable",
			wantCat: CategoryDatabase,
		},
		{
			name:    "unknown error code",
			code:    "X999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNew_CopiesSuggestion(t *testing.T) {
	err := New(CodeMissingBucket)
	if !strings.Contains(err.Suggestion, "XCEL_S3_BUCKET") {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}

	err.WithSuggestion("changed")
	if tmpl, _ := GetTemplate(CodeMissingBucket); tmpl.Suggestion == "changed" {
		t.Error("modifying an error must not change its template")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "a.xlsx")
	if err.Message != `file "a.xlsx" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestXcelError_Error(t *testing.T) {
	err := New(CodeInvalidLimit)
	if got, want := err.Error(), "X103: Invalid maximum file size"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Wrap(fmt.Errorf("strconv: bad digit"))
	if got, want := err.Error(), "X103: Invalid maximum file size: strconv: bad digit"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &XcelError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestXcelError_Wrap(t *testing.T) {
	err := New(CodeConfigRead).Wrap(fs.ErrPermission)

	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("errors.Is should find the wrapped error")
	}
	if err.Unwrap() != fs.ErrPermission {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeIngestFailed) != nil {
		t.Error("FromError(nil) should be nil")
	}

	original := New(CodeDatabase)
	wrapped := fmt.Errorf("startup: %w", original)
	if got := FromError(wrapped, CodeIngestFailed); got != original {
		t.Errorf("expected the XcelError in the chain, got %v", got)
	}

	plain := stderrors.New("boom")
	got := FromError(plain, CodeIngestFailed)
	if got.Code != CodeIngestFailed || got.Wrapped != plain {
		t.Errorf("unexpected wrap: %+v", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("load: %w", New(CodeMissingBucket))
	if !HasCode(err, CodeMissingBucket) {
		t.Error("expected HasCode to find X105")
	}
	if HasCode(err, CodeInvalidStorage) {
		t.Error("unexpected match for X104")
	}
	if HasCode(stderrors.New("plain"), CodeMissingBucket) {
		t.Error("plain errors carry no code")
	}
}

func noColors(t *testing.T) {
	t.Helper()
	DisableColors()
	t.Cleanup(func() { colorEnabled = true })
}

func TestFormat(t *testing.T) {
	noColors(t)

	err := New(CodeInvalidStorage).
		WithDetail(`XCEL_STORAGE is "ftp"`).
		Wrap(stderrors.New("unsupported"))

	out := err.Format()
	for _, want := range []string{
		"ERROR X104: Unknown storage backend",
		`XCEL_STORAGE is "ftp"`,
		"Cause: unsupported",
		"Hint: Set XCEL_STORAGE to disk, s3 or none",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() should not contain ANSI codes when colors are disabled")
	}

	uncoded := Newf(CategoryCLI, "no code").Format()
	if !strings.Contains(uncoded, "ERROR: no code") {
		t.Errorf("uncoded Format() = %q", uncoded)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeDatabase).Wrap(stderrors.New(`dial "db": refused`))

	var got map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON is not valid JSON: %v", jerr)
	}
	if got["code"] != CodeDatabase || got["category"] != "database" {
		t.Errorf("unexpected identity: %v", got)
	}
	if got["cause"] != `dial "db": refused` {
		t.Errorf("cause = %q", got["cause"])
	}
}

func TestPrintError(t *testing.T) {
	noColors(t)

	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("serve: %w", New(CodeServeFailed)))
	if !strings.Contains(buf.String(), "ERROR X402: Server stopped unexpectedly") {
		t.Errorf("PrintError(coded) = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError(plain) = %q", buf.String())
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) < 10 {
		t.Fatalf("expected a populated registry, got %d codes", len(codes))
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%s) not found", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s is incomplete: %+v", code, tmpl)
		}
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %s before %s", codes[i-1], codes[i])
		}
	}
	if _, ok := GetTemplate("X999"); ok {
		t.Error("GetTemplate(X999) should not exist")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"one two three four five six", 10, 3},
	}
	for _, tt := range tests {
		lines := wrapText(tt.text, tt.width)
		if len(lines) != tt.want {
			t.Errorf("wrapText(%q, %d) = %d lines %q, want %d", tt.text, tt.width, len(lines), lines, tt.want)
		}
		for _, l := range lines {
			if len(l) > tt.width && !strings.Contains(l, " ") {
				continue
			}
			if len(l) > tt.width {
				t.Errorf("line %q longer than %d", l, tt.width)
			}
		}
	}
}
