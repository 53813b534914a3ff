package publisher

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
	"github.com/goliatone/go-sitegen/pkg/storage"
)

type writeCategory string

const (
	categoryDocument writeCategory = "document"
	categoryIndex    writeCategory = "index"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryFeed     writeCategory = "feed"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write routed through the artifact writer.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Size        int64
	Category    writeCategory
	ContentType string
	Checksum    string
	Metadata    map[string]string
}

// artifactWriter abstracts storage provider specifics for publisher outputs.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Remove(ctx context.Context, path string) error
}

func newArtifactWriter(provider interfaces.StorageProvider) artifactWriter {
	if provider == nil {
		return noopWriter{}
	}
	return &storageWriter{provider: provider}
}

type storageWriter struct {
	provider interfaces.StorageProvider
}

func (w *storageWriter) EnsureDir(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" || path == "." {
		return nil
	}
	_, err := w.provider.Exec(ctx, storage.OpEnsureDir, path)
	return err
}

func (w *storageWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("publisher: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("publisher: write requires path")
	}
	if req.Metadata == nil {
		req.Metadata = map[string]string{}
	}
	args := []any{
		req.Path,
		req.Content,
		req.Size,
		string(req.Category),
		req.ContentType,
		req.Checksum,
		req.Metadata,
	}
	_, err := w.provider.Exec(ctx, storage.OpWrite, args...)
	return err
}

// Remove with an empty path wipes the whole storage root. Providers treat
// "." as remove-everything.
func (w *storageWriter) Remove(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "."
	}
	_, err := w.provider.Exec(ctx, storage.OpRemove, path)
	return err
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }

func (noopWriter) Remove(context.Context, string) error { return nil }
