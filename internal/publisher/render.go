package publisher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-sitegen/internal/collection"
)

// ErrRenderFailed indicates a document body that could not be converted into
// the output format. The error is fatal to the run.
var ErrRenderFailed = errors.New("publisher: render failed")

// RenderFailureError names the offending document.
type RenderFailureError struct {
	Identifier string
	Path       string
	Reason     error
}

func (e *RenderFailureError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.Identifier, e.Path, e.Reason)
}

func (e *RenderFailureError) Unwrap() error {
	return ErrRenderFailed
}

// TemplateContext captures the data contract passed to TemplateRenderer
// implementations for a single document.
type TemplateContext struct {
	Site     SiteMetadata
	Document DocumentContext
	Build    BuildMetadata
}

// IndexContext is the data contract for the index artifact template.
type IndexContext struct {
	Site  SiteMetadata
	Build BuildMetadata
	Items []IndexItem
}

// IndexItem is one collection entry as it appears on the index page.
type IndexItem struct {
	Identifier string
	Title      string
	Route      string
	Order      string
	Author     string
}

// SiteMetadata exposes site-wide information required by templates.
type SiteMetadata struct {
	Title       string
	Description string
	BaseURL     string
}

// WithBaseURL prefixes the provided path with the configured base URL.
func (s SiteMetadata) WithBaseURL(path string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if base == "" {
		return path
	}
	return base + path
}

// DocumentContext contains the resolved data for one rendered document.
type DocumentContext struct {
	Identifier string
	Title      string
	Author     string
	Order      string
	Layout     string
	Sidenav    string
	Route      string
	BodyHTML   string
	Draft      bool
	Metadata   map[string]any
	Modified   time.Time
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// RenderedDocument captures the rendered output for one document.
type RenderedDocument struct {
	Identifier string
	Title      string
	Route      string
	Output     string
	HTML       string
	Checksum   string
	Draft      bool
	Modified   time.Time
	Duration   time.Duration
	// SourceHash is the hex digest of the source bytes, used by the build
	// manifest to skip unchanged documents on incremental runs.
	SourceHash string
}

// RenderDiagnostic records rendering timing and errors for individual documents.
type RenderDiagnostic struct {
	Identifier string
	Path       string
	Route      string
	Duration   time.Duration
	Skipped    bool
	Err        error
}

type renderOutcome struct {
	doc        RenderedDocument
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}

func documentContext(entry collection.Entry, bodyHTML string, draft bool) DocumentContext {
	fm := entry.Document.FrontMatter
	return DocumentContext{
		Identifier: entry.Identifier,
		Title:      fm.Title,
		Author:     fm.Author,
		Order:      entry.Order(),
		Layout:     fm.Layout,
		Sidenav:    fm.Sidenav,
		Route:      routeFor(entry.Identifier, draft),
		BodyHTML:   bodyHTML,
		Draft:      draft,
		Metadata:   fm.Raw,
		Modified:   entry.Document.LastModified,
	}
}
