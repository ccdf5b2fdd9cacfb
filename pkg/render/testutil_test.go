package render

import (
	"strings"
	"testing"
)

func extractAttrValue(t *testing.T, s string, attr string) string {
	t.Helper()

	needle := attr + "="
	idx := strings.Index(s, needle)
	if idx == -1 {
		t.Fatalf("expected %q in %q", needle, s)
	}

	start := idx + len(needle)
	if start >= len(s) {
		t.Fatalf("malformed attribute %q in %q", attr, s)
	}

	quote := s[start]
	if quote != '"' && quote != '\'' {
		t.Fatalf("expected quote for %q in %q", attr, s)
	}
	start++

	endRel := strings.IndexByte(s[start:], quote)
	if endRel == -1 {
		t.Fatalf("unterminated attribute %q in %q", attr, s)
	}

	return s[start : start+endRel]
}

func TestUploadFormAttributes(t *testing.T) {
	form := UploadForm("Send", `margin-top:1rem;" onload="x`)

	if got := extractAttrValue(t, form, "action"); got != UploadPath {
		t.Errorf("action = %q, want %q", got, UploadPath)
	}
	if got := extractAttrValue(t, form, "enctype"); got != "multipart/form-data" {
		t.Errorf("enctype = %q", got)
	}
	if got := extractAttrValue(t, form, "style"); got != `margin-top:1rem;&quot; onload=&quot;x` {
		t.Errorf("style = %q, quotes must stay inside the attribute", got)
	}
}
