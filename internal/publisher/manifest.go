package publisher

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".sitegen-manifest.json"
	manifestFileVersion = 1
)

// buildManifest stores metadata about the last successful build to support
// incremental runs. Output bytes never depend on manifest state; it only
// decides whether an unchanged document can skip re-rendering.
type buildManifest struct {
	Version     int
	GeneratedAt time.Time
	Documents   map[string]manifestEntry
	Metadata    map[string]json.RawMessage
}

// manifestFile is the on-disk shape: documents are a sorted array so the
// artifact stays byte-stable across runs.
type manifestFile struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Documents   []manifestEntry            `json:"documents"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

type manifestEntry struct {
	Identifier   string    `json:"identifier"`
	Route        string    `json:"route"`
	Output       string    `json:"output"`
	SourceHash   string    `json:"source_hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
	Draft        bool      `json:"draft,omitempty"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version:   manifestFileVersion,
		Documents: map[string]manifestEntry{},
		Metadata:  map[string]json.RawMessage{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("publisher: parse manifest: %w", err)
	}

	manifest := newBuildManifest()
	manifest.GeneratedAt = file.GeneratedAt
	if file.Version != 0 {
		manifest.Version = file.Version
	}
	if file.Metadata != nil {
		manifest.Metadata = file.Metadata
	}
	for _, entry := range file.Documents {
		manifest.set(entry)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	ordered := manifestFile{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Metadata:    m.Metadata,
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	if len(m.Documents) > 0 {
		ordered.Documents = make([]manifestEntry, 0, len(m.Documents))
		for _, entry := range m.Documents {
			ordered.Documents = append(ordered.Documents, entry)
		}
		sort.Slice(ordered.Documents, func(i, j int) bool {
			return ordered.Documents[i].Identifier < ordered.Documents[j].Identifier
		})
	}
	return json.MarshalIndent(ordered, "", "  ")
}

func (m *buildManifest) key(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (m *buildManifest) lookup(identifier string) (manifestEntry, bool) {
	if m == nil || len(m.Documents) == 0 {
		return manifestEntry{}, false
	}
	entry, ok := m.Documents[m.key(identifier)]
	return entry, ok
}

func (m *buildManifest) set(entry manifestEntry) {
	if m == nil {
		return
	}
	if m.Documents == nil {
		m.Documents = map[string]manifestEntry{}
	}
	m.Documents[m.key(entry.Identifier)] = entry
}

func (m *buildManifest) shouldSkip(identifier, sourceHash, output string) bool {
	entry, ok := m.lookup(identifier)
	if !ok {
		return false
	}
	if entry.SourceHash != sourceHash {
		return false
	}
	if strings.TrimSpace(entry.Output) != strings.TrimSpace(output) {
		return false
	}
	return true
}

func (m *buildManifest) prune(keep map[string]struct{}) {
	if m == nil || len(m.Documents) == 0 {
		return
	}
	for key := range m.Documents {
		if _, ok := keep[key]; !ok {
			delete(m.Documents, key)
		}
	}
}
