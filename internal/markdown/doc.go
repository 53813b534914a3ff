// Package markdown converts document bodies into publishable HTML. It wraps
// the goldmark engine behind the interfaces.MarkdownParser contract so the
// publisher never depends on a concrete rendering library.
package markdown
