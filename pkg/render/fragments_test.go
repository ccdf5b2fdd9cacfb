package render_test

import (
	"strings"
	"testing"

	"github.com/xcel-dev/xcel/pkg/render"
)

func TestFormPage(t *testing.T) {
	doc := render.FormPage("")

	for _, want := range []string{
		`<form action="/admin/upload" method="POST" enctype="multipart/form-data">`,
		`<input type="hidden" name="responseType" value="html" />`,
		`<input type="file" name="file" accept=".xlsx,.xls" required />`,
		`Upload &amp; Process`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("form page missing %q", want)
		}
	}

	hidden := strings.Index(doc, `name="responseType"`)
	file := strings.Index(doc, `name="file"`)
	if hidden < 0 || file < 0 || hidden > file {
		t.Errorf("responseType field must precede the file input (hidden=%d file=%d)", hidden, file)
	}
	if strings.Contains(doc, `class="status`) {
		t.Error("form page without status should not contain a status block")
	}
}

func TestFormPage_WithStatus(t *testing.T) {
	doc := render.FormPage(render.StatusBlock("success", "Done", "ok"))
	if !strings.Contains(doc, `class="status success"`) {
		t.Fatalf("status block missing: %s", doc)
	}
	if strings.Index(doc, `class="status success"`) > strings.Index(doc, "<form") {
		t.Error("status block should precede the form")
	}
}

func TestFailurePage(t *testing.T) {
	doc := render.FailurePage(render.EscapeHTML("File too large. Maximum 25MB allowed."))

	for _, want := range []string{
		`class="status error"`,
		"<strong>Upload failed</strong>",
		"Maximum 25MB",
		`style="margin-top:1.5rem;"`,
		"Try Again",
		`action="/admin/upload"`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("failure page missing %q", want)
		}
	}
}

func TestSuccessPage(t *testing.T) {
	doc := render.SuccessPage("3 rows processed", `{"rows": 3, "name": "<a>"}`)

	if strings.Contains(doc, `class="status error"`) {
		t.Error("success page must not contain an error block")
	}
	if !strings.Contains(doc, `class="status success"`) {
		t.Error("success page missing success block")
	}
	if !strings.Contains(doc, "&lt;a&gt;") {
		t.Error("details should be escaped")
	}
	if !strings.Contains(doc, "Upload Another") {
		t.Error("success page should offer another upload")
	}
}

func TestStatusBlock_EscapesTitle(t *testing.T) {
	got := render.StatusBlock("error", "<x>", "<b>body</b>")
	if !strings.Contains(got, "<strong>&lt;x&gt;</strong>") {
		t.Errorf("title not escaped: %s", got)
	}
	if !strings.Contains(got, "<b>body</b>") {
		t.Errorf("body should be inserted as-is: %s", got)
	}
}
