package interfaces

import (
	"context"
	"time"
)

// Document represents a content unit with parsed metadata and body text. The
// struct is shared between the interfaces package and internal
// implementations so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum stores a digest of the original file content (SHA-256) so
	// incremental builds can detect changes without re-rendering unchanged
	// documents.
	Checksum []byte
	// SourceIndex records the document's position in discovery order. Equal
	// ordering keys keep this relative order after sorting.
	SourceIndex int
}

// FrontMatter models metadata extracted from a document header. Recognized
// fields are typed; everything else flows through Custom untouched so
// downstream tooling can interpret fields this pipeline does not.
type FrontMatter struct {
	Title     string         `yaml:"title" json:"title"`
	Permalink string         `yaml:"permalink" json:"permalink"`
	Order     string         `yaml:"order" json:"order"`
	Published bool           `yaml:"published" json:"published"`
	Author    string         `yaml:"author" json:"author"`
	Layout    string         `yaml:"layout" json:"layout"`
	Sidenav   string         `yaml:"sidenav" json:"sidenav"`
	Type      string         `yaml:"type" json:"type"`
	Custom    map[string]any `yaml:",inline" json:"custom"`
	Raw       map[string]any `yaml:"-" json:"raw"`
}

// DocumentLoader discovers and parses documents from a content root.
type DocumentLoader interface {
	LoadFile(ctx context.Context, path string, opts LoadOptions) (*Document, error)
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
}

// LoadOptions fine-tunes how documents are discovered and parsed.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
	Parser    ParseOptions
}
