package render

import "strings"

// UploadPath is the form action for every upload form rendered here.
const UploadPath = "/admin/upload"

const heading = `<h1>Excel Upload (Admin)</h1>`

// UploadForm returns the upload form fragment. The hidden responseType
// field precedes the file input so that a streaming decoder sees it before
// the file body.
func UploadForm(button string, extraStyle string) string {
	var b strings.Builder
	b.WriteString(`<form action="` + UploadPath + `" method="POST" enctype="multipart/form-data"`)
	if extraStyle != "" {
		b.WriteString(` style="` + EscapeAttr(extraStyle) + `"`)
	}
	b.WriteString(">\n")
	b.WriteString(`  <input type="hidden" name="responseType" value="html" />` + "\n")
	b.WriteString("  <label>\n")
	b.WriteString("    <strong>Select Excel file</strong>\n")
	b.WriteString(`    <input type="file" name="file" accept=".xlsx,.xls" required />` + "\n")
	b.WriteString("  </label>\n")
	b.WriteString(`  <button type="submit">` + EscapeHTML(button) + "</button>\n")
	b.WriteString("</form>")
	return b.String()
}

// StatusBlock returns a status block. kind is "success" or "error"; body
// is inserted as-is.
func StatusBlock(kind, title, body string) string {
	return `<div class="status ` + EscapeAttr(kind) + `">` + "\n" +
		"  <strong>" + EscapeHTML(title) + "</strong><br />\n" +
		"  " + body + "\n" +
		"</div>"
}

// FormPage renders the GET form, optionally preceded by a status block.
func FormPage(status string) string {
	var b strings.Builder
	b.WriteString(heading + "\n")
	b.WriteString("<p>Upload XLSX/XLS file directly from server. This form hits the same backend pipeline used by API clients.</p>\n")
	if status != "" {
		b.WriteString(status + "\n")
	}
	b.WriteString(UploadForm("Upload & Process", ""))
	return Page(b.String())
}

// FailurePage renders a failure status with a retry form. message must
// already be escaped.
func FailurePage(message string) string {
	return Page(heading + "\n" +
		StatusBlock("error", "Upload failed", message) + "\n" +
		UploadForm("Try Again", "margin-top:1.5rem;"))
}

// SuccessPage renders a success status followed by optional preformatted
// details and a form for the next upload. summary must already be escaped;
// details are escaped here.
func SuccessPage(summary, details string) string {
	var b strings.Builder
	b.WriteString(heading + "\n")
	b.WriteString(StatusBlock("success", "Upload processed", summary) + "\n")
	if details != "" {
		b.WriteString("<pre>" + EscapeHTML(details) + "</pre>\n")
	}
	b.WriteString(UploadForm("Upload Another", "margin-top:1.5rem;"))
	return Page(b.String())
}
