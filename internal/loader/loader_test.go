package loader

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-sitegen/pkg/interfaces"
)

func contentFile(title, permalink, order string, published bool) *fstest.MapFile {
	body := "---\n" +
		"title: " + title + "\n" +
		"permalink: " + permalink + "\n"
	if order != "" {
		body += "order: \"" + order + "\"\n"
	}
	if published {
		body += "published: true\n"
	}
	body += "---\n\nSome **markdown** body.\n"
	return &fstest.MapFile{
		Data:    []byte(body),
		ModTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLoadDirectoryDeterministicOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"zeta.md":  contentFile("Zeta", "/zeta", "2", true),
		"alpha.md": contentFile("Alpha", "/alpha", "1", true),
		"mid.md":   contentFile("Mid", "/mid", "3", true),
	}

	l := New(fsys, Config{BasePath: ".", Recursive: true})
	docs, err := l.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("loaded %d documents, want 3", len(docs))
	}
	wantOrder := []string{"alpha.md", "mid.md", "zeta.md"}
	for i, want := range wantOrder {
		if docs[i].FilePath != want {
			t.Errorf("docs[%d].FilePath = %q, want %q", i, docs[i].FilePath, want)
		}
		if docs[i].SourceIndex != i {
			t.Errorf("docs[%d].SourceIndex = %d, want %d", i, docs[i].SourceIndex, i)
		}
	}
}

func TestLoadDirectoryPatternFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"doc.md":     contentFile("Doc", "/doc", "", true),
		"notes.txt":  {Data: []byte("plain text")},
		"readme.rst": {Data: []byte("other format")},
	}

	l := New(fsys, Config{BasePath: ".", Recursive: true})
	docs, err := l.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "doc.md" {
		t.Fatalf("expected only doc.md, got %+v", paths(docs))
	}
}

func TestLoadDirectoryRecursionDisabled(t *testing.T) {
	fsys := fstest.MapFS{
		"top.md":         contentFile("Top", "/top", "", true),
		"nested/deep.md": contentFile("Deep", "/deep", "", true),
	}

	l := New(fsys, Config{BasePath: ".", Recursive: false})
	docs, err := l.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}
	if len(docs) != 1 || docs[0].FilePath != "top.md" {
		t.Fatalf("expected only top.md, got %+v", paths(docs))
	}
}

func TestLoadDirectoryRecursiveDoubleStar(t *testing.T) {
	fsys := fstest.MapFS{
		"guides/one.md":     contentFile("One", "/guides/one", "1", true),
		"guides/sub/two.md": contentFile("Two", "/guides/sub/two", "2", true),
	}

	l := New(fsys, Config{BasePath: ".", Pattern: "**/*.md", Recursive: true})
	docs, err := l.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadDirectory returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("loaded %d documents, want 2: %+v", len(docs), paths(docs))
	}
}

func TestLoadDirectoryMalformedAborts(t *testing.T) {
	fsys := fstest.MapFS{
		"good.md": contentFile("Good", "/good", "", true),
		"bad.md":  {Data: []byte("no front matter here\n")},
	}

	l := New(fsys, Config{BasePath: ".", Recursive: true})
	_, err := l.LoadDirectory(context.Background(), ".", interfaces.LoadOptions{})
	if err == nil {
		t.Fatal("expected malformed document to abort the load")
	}
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("error %v should wrap ErrMalformedDocument", err)
	}
}

func TestLoadFileChecksum(t *testing.T) {
	fsys := fstest.MapFS{
		"doc.md": contentFile("Doc", "/doc", "", true),
	}

	l := New(fsys, Config{BasePath: ".", Recursive: true})
	doc, err := l.LoadFile(context.Background(), "doc.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(doc.Checksum) != 32 {
		t.Errorf("Checksum length = %d, want 32 (sha256)", len(doc.Checksum))
	}

	same, err := l.LoadFile(context.Background(), "doc.md", interfaces.LoadOptions{})
	if err != nil {
		t.Fatalf("second LoadFile returned error: %v", err)
	}
	if string(doc.Checksum) != string(same.Checksum) {
		t.Error("checksum should be stable for identical content")
	}
}

func TestLoadFileCancelledContext(t *testing.T) {
	fsys := fstest.MapFS{
		"doc.md": contentFile("Doc", "/doc", "", true),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(fsys, Config{BasePath: ".", Recursive: true})
	if _, err := l.LoadFile(ctx, "doc.md", interfaces.LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadFile error = %v, want context.Canceled", err)
	}
}

func paths(docs []*interfaces.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.FilePath)
	}
	return out
}
