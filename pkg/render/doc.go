// Package render produces the HTML served by the admin upload pages.
//
// Every page is the same self-contained document: a fixed head with inline
// styles and a single card into which one fragment is placed.
//
//	doc := render.FormPage("")
//	doc = render.FailurePage(render.EscapeHTML(err.Error()))
//
// # Escaping
//
// Page inserts its fragment verbatim. Text that did not originate in this
// package must go through EscapeHTML (or EscapeAttr inside an attribute)
// before it reaches a fragment.
package render
