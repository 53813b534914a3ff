package collection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

var (
	// ErrDuplicateIdentifier indicates two documents in the collection share
	// an identifier. Drafts retained by IncludeUnpublished collide too, since
	// identifiers key the manifest and listing records. The error is fatal
	// and aborts a run before any output is written.
	ErrDuplicateIdentifier = errors.New("collection: duplicate identifier")
	// ErrMissingIdentifier indicates a published document whose permalink is
	// empty or normalizes to nothing.
	ErrMissingIdentifier = errors.New("collection: missing identifier")
)

// DuplicateIdentifierError names both source locations that collided.
type DuplicateIdentifierError struct {
	Identifier string
	FirstPath  string
	SecondPath string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %q: %s and %s", e.Identifier, e.FirstPath, e.SecondPath)
}

func (e *DuplicateIdentifierError) Unwrap() error {
	return ErrDuplicateIdentifier
}

// Config captures the indexer's explicit knobs.
type Config struct {
	// Policy selects the ordering-key comparison rule. Defaults to numeric.
	Policy OrderPolicy
	// IncludeUnpublished retains unpublished documents in the collection,
	// flagged so the publisher can route them to an unlinked drafts prefix.
	// The index artifact never lists them.
	IncludeUnpublished bool
}

// Entry pairs a document with its derived identifier and parsed ordering key.
type Entry struct {
	Identifier string
	Document   *interfaces.Document

	key orderKey
}

// Order returns the entry's raw ordering key.
func (e Entry) Order() string {
	return e.key.raw
}

// Collection is the ordered, de-duplicated set of published documents that
// drives index generation. It is immutable once built: accessors return
// copies, never internal state.
type Collection struct {
	entries []Entry
	drafts  []Entry
}

// Build filters, sorts, and de-duplicates parsed documents into a
// Collection. Equal ordering keys preserve the documents' original relative
// input order. The input slice is not mutated.
func Build(docs []*interfaces.Document, cfg Config) (*Collection, error) {
	policy := cfg.Policy
	if policy == "" {
		policy = OrderNumeric
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("collection: unknown order policy %q", policy)
	}

	published := make([]Entry, 0, len(docs))
	drafts := make([]Entry, 0)
	byID := map[string]Entry{}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if !doc.FrontMatter.Published && !cfg.IncludeUnpublished {
			continue
		}

		id, err := DeriveIdentifier(doc.FrontMatter.Permalink)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingIdentifier, doc.FilePath)
		}
		// Drafts share the identifier namespace with published documents:
		// a collision would let one record shadow the other downstream.
		if prior, ok := byID[id]; ok {
			return nil, &DuplicateIdentifierError{
				Identifier: id,
				FirstPath:  prior.Document.FilePath,
				SecondPath: doc.FilePath,
			}
		}

		entry := Entry{
			Identifier: id,
			Document:   doc,
			key:        parseOrderKey(doc.FrontMatter.Order, policy),
		}
		byID[id] = entry
		if doc.FrontMatter.Published {
			published = append(published, entry)
		} else {
			drafts = append(drafts, entry)
		}
	}

	// SliceStable keeps equal keys in input order, which LoadDirectory pinned
	// to SourceIndex.
	sort.SliceStable(published, func(i, j int) bool {
		return published[i].key.less(published[j].key)
	})
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].key.less(drafts[j].key)
	})

	return &Collection{entries: published, drafts: drafts}, nil
}

// Len reports the number of published entries.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the published entries in collection order.
func (c *Collection) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Drafts returns unpublished entries retained by IncludeUnpublished, in the
// same declared order.
func (c *Collection) Drafts() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.drafts...)
}

// Lookup finds a published entry by identifier.
func (c *Collection) Lookup(identifier string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, entry := range c.entries {
		if entry.Identifier == identifier {
			return entry, true
		}
	}
	return Entry{}, false
}

// DeriveIdentifier normalizes a permalink into the collection identifier.
// Each path segment is slug-normalized independently so nested permalinks
// like "/tips/totw-86" stay addressable as output paths.
func DeriveIdentifier(permalink string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(permalink), "/")
	if trimmed == "" {
		return "", fmt.Errorf("empty permalink")
	}

	segments := strings.Split(trimmed, "/")
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		normalized, err := slug.Normalize(segment)
		if err != nil {
			return "", fmt.Errorf("normalize permalink segment %q: %w", segment, err)
		}
		if normalized == "" {
			continue
		}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("permalink %q normalizes to nothing", permalink)
	}
	return strings.Join(out, "/"), nil
}
