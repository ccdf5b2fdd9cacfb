package admin

import (
	"net/http"
	"net/url"
)

// HintParam is the query parameter and form field carrying the response
// mode hint.
const HintParam = "responseType"

// Mode is how an upload result is presented.
type Mode int

const (
	// ModeStructured answers with a JSON body. It is the default.
	ModeStructured Mode = iota

	// ModeHTML answers with a rendered page.
	ModeHTML
)

// String returns the mode name used in logs and metric labels.
func (m Mode) String() string {
	if m == ModeHTML {
		return "html"
	}
	return "structured"
}

// SelectMode maps a hint to a Mode. Only the exact value "html" selects
// ModeHTML; everything else, including an empty hint, selects
// ModeStructured.
func SelectMode(hint string) Mode {
	if hint == "html" {
		return ModeHTML
	}
	return ModeStructured
}

// modeFor resolves the mode for a request. A hint in the query string is
// known before decoding and wins over the decoded form field.
func modeFor(r *http.Request, fields url.Values) Mode {
	if hint := r.URL.Query().Get(HintParam); hint != "" {
		return SelectMode(hint)
	}
	return SelectMode(fields.Get(HintParam))
}
