package loader

import (
	"bytes"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and body content from the provided
// source bytes. It returns the structured front matter, the body without
// delimiters, and a MalformedDocument error when the header is missing,
// unterminated, or cannot be decoded.
func ParseFrontMatter(path string, source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.MustParse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, malformed(path, err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content, and modification time. BodyHTML is intentionally left empty so
// the publisher can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(path, source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

// frontMatterEnvelope mirrors the recognized header fields. The ordering key
// stays a string at this stage; the collection indexer decides how keys
// compare. Everything unrecognized lands in Custom and is carried through
// unrendered.
type frontMatterEnvelope struct {
	Title     string         `yaml:"title"`
	Permalink string         `yaml:"permalink"`
	Order     string         `yaml:"order"`
	Published bool           `yaml:"published"`
	Author    string         `yaml:"author"`
	Layout    string         `yaml:"layout"`
	Sidenav   string         `yaml:"sidenav"`
	Type      string         `yaml:"type"`
	Custom    map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	raw := make(map[string]any, len(env.Custom)+8)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Permalink != "" {
		raw["permalink"] = env.Permalink
	}
	if env.Order != "" {
		raw["order"] = env.Order
	}
	if env.Author != "" {
		raw["author"] = env.Author
	}
	if env.Layout != "" {
		raw["layout"] = env.Layout
	}
	if env.Sidenav != "" {
		raw["sidenav"] = env.Sidenav
	}
	if env.Type != "" {
		raw["type"] = env.Type
	}
	raw["published"] = env.Published

	return interfaces.FrontMatter{
		Title:     env.Title,
		Permalink: env.Permalink,
		Order:     env.Order,
		Published: env.Published,
		Author:    env.Author,
		Layout:    env.Layout,
		Sidenav:   env.Sidenav,
		Type:      env.Type,
		Custom:    cloneMap(env.Custom),
		Raw:       raw,
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
