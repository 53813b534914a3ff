package publisher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-sitegen/internal/collection"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
	"github.com/goliatone/go-sitegen/pkg/storage"
)

type fakeLoader struct {
	docs []*interfaces.Document
	err  error
}

func (l *fakeLoader) LoadFile(_ context.Context, path string, _ interfaces.LoadOptions) (*interfaces.Document, error) {
	for _, doc := range l.docs {
		if doc.FilePath == path {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", path)
}

func (l *fakeLoader) LoadDirectory(_ context.Context, _ string, _ interfaces.LoadOptions) ([]*interfaces.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.docs, nil
}

type passthroughParser struct{}

func (passthroughParser) Parse(markdown []byte) ([]byte, error) {
	return []byte("<p>" + strings.TrimSpace(string(markdown)) + "</p>"), nil
}

func (p passthroughParser) ParseWithOptions(markdown []byte, _ interfaces.ParseOptions) ([]byte, error) {
	return p.Parse(markdown)
}

type failingParser struct{}

func (f failingParser) Parse(markdown []byte) ([]byte, error) {
	if strings.Contains(string(markdown), "EXPLODE") {
		return nil, fmt.Errorf("bad markdown")
	}
	return []byte("<p>ok</p>"), nil
}

func (f failingParser) ParseWithOptions(markdown []byte, _ interfaces.ParseOptions) ([]byte, error) {
	return f.Parse(markdown)
}

type recordingRenderer struct {
	mu      sync.Mutex
	calls   []string
	failFor string
}

func (r *recordingRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ctx := data.(type) {
	case TemplateContext:
		if r.failFor != "" && ctx.Document.Identifier == r.failFor {
			return "", fmt.Errorf("template blew up")
		}
		r.calls = append(r.calls, name+":"+ctx.Document.Identifier)
		return "<html>" + ctx.Document.Identifier + "|" + ctx.Document.BodyHTML + "</html>", nil
	case IndexContext:
		r.calls = append(r.calls, name)
		ids := make([]string, 0, len(ctx.Items))
		for _, item := range ctx.Items {
			ids = append(ids, item.Identifier)
		}
		return "<index>" + strings.Join(ids, ",") + "</index>", nil
	default:
		return "", fmt.Errorf("unexpected template data %T", data)
	}
}

func (r *recordingRenderer) RenderString(content string, _ any, _ ...io.Writer) (string, error) {
	return content, nil
}

func (r *recordingRenderer) documentCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, call := range r.calls {
		if strings.HasPrefix(call, templateDocument+":") {
			count++
		}
	}
	return count
}

func testDoc(path, permalink, order, body string, published bool) *interfaces.Document {
	sum := sha256.Sum256([]byte(body))
	return &interfaces.Document{
		FilePath: path,
		FrontMatter: interfaces.FrontMatter{
			Title:     strings.TrimSuffix(path, ".md"),
			Permalink: permalink,
			Order:     order,
			Published: published,
		},
		Body:         []byte(body),
		LastModified: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		Checksum:     sum[:],
	}
}

func newTestService(t *testing.T, cfg Config, docs []*interfaces.Document, store interfaces.StorageProvider, renderer interfaces.TemplateRenderer) *service {
	t.Helper()
	if renderer == nil {
		renderer = &recordingRenderer{}
	}
	svc := NewService(cfg, Dependencies{
		Loader:   &fakeLoader{docs: docs},
		Parser:   passthroughParser{},
		Renderer: renderer,
		Storage:  store,
	}).(*service)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	return svc
}

func defaultTestConfig() Config {
	return Config{
		OutputDir:       "site",
		BaseURL:         "https://docs.example.com",
		SiteTitle:       "Docs",
		GenerateSitemap: true,
		GenerateRobots:  true,
		GenerateFeed:    true,
	}
}

func TestBuildWritesAllArtifacts(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("b.md", "/second", "2", "second body", true),
		testDoc("a.md", "/first", "1", "first body", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.DocumentsBuilt != 2 {
		t.Errorf("DocumentsBuilt = %d, want 2", result.DocumentsBuilt)
	}

	wantPaths := []string{
		"site/.sitegen-manifest.json",
		"site/feed.atom.xml",
		"site/first/index.html",
		"site/index.html",
		"site/robots.txt",
		"site/second/index.html",
		"site/sitemap.xml",
	}
	got := store.Paths()
	if len(got) != len(wantPaths) {
		t.Fatalf("paths = %v, want %v", got, wantPaths)
	}
	for i := range wantPaths {
		if got[i] != wantPaths[i] {
			t.Fatalf("paths = %v, want %v", got, wantPaths)
		}
	}

	page, _ := store.File("site/first/index.html")
	if !strings.Contains(string(page), "first body") {
		t.Errorf("document page missing rendered body: %q", page)
	}

	index, _ := store.File("site/index.html")
	if string(index) != "<index>first,second</index>" {
		t.Errorf("index = %q, want collection order first,second", index)
	}

	sitemap, _ := store.File("site/sitemap.xml")
	if !strings.Contains(string(sitemap), "https://docs.example.com/first/") {
		t.Errorf("sitemap missing document location: %q", sitemap)
	}
}

func TestBuildRenderedInCollectionOrder(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("ten.md", "/ten", "10", "ten", true),
		testDoc("nine.md", "/nine", "9", "nine", true),
		testDoc("two.md", "/two", "2", "two", true),
	}
	svc := newTestService(t, defaultTestConfig(), docs, storage.NewMemory(), nil)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	want := []string{"two", "nine", "ten"}
	for i, doc := range result.Rendered {
		if doc.Identifier != want[i] {
			t.Fatalf("rendered order = %v, want %v", renderedIDs(result.Rendered), want)
		}
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "body", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	result, err := svc.Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !result.DryRun {
		t.Error("result.DryRun should be true")
	}
	if result.DocumentsBuilt != 1 {
		t.Errorf("DocumentsBuilt = %d, want 1 (dry-run still renders)", result.DocumentsBuilt)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("dry-run wrote artifacts: %v", paths)
	}
}

func TestBuildTemplateFailureWritesNothing(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "body a", true),
		testDoc("b.md", "/b", "2", "body b", true),
	}
	store := storage.NewMemory()
	renderer := &recordingRenderer{failFor: "b"}
	svc := newTestService(t, defaultTestConfig(), docs, store, renderer)

	_, err := svc.Build(context.Background(), BuildOptions{})
	if err == nil {
		t.Fatal("expected render failure")
	}
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("error %v should wrap ErrRenderFailed", err)
	}

	var failure *RenderFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("error %v should carry a RenderFailureError", err)
	}
	if failure.Identifier != "b" {
		t.Errorf("failure identifier = %q, want b", failure.Identifier)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("failed build must not write output, wrote %v", paths)
	}
}

func TestBuildParserFailureWritesNothing(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "fine", true),
		testDoc("b.md", "/b", "2", "EXPLODE", true),
	}
	store := storage.NewMemory()
	svc := NewService(defaultTestConfig(), Dependencies{
		Loader:   &fakeLoader{docs: docs},
		Parser:   failingParser{},
		Renderer: &recordingRenderer{},
		Storage:  store,
	}).(*service)

	_, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("error %v should wrap ErrRenderFailed", err)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("failed build must not write output, wrote %v", paths)
	}
}

func TestBuildDuplicateIdentifierAborts(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/same", "1", "one", true),
		testDoc("b.md", "/same", "2", "two", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	_, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, collection.ErrDuplicateIdentifier) {
		t.Fatalf("error %v should wrap ErrDuplicateIdentifier", err)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("aborted build must not write output, wrote %v", paths)
	}
}

func TestBuildIdempotentOutput(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/alpha", "1", "alpha body", true),
		testDoc("b.md", "/beta", "2", "beta body", true),
	}

	first := storage.NewMemory()
	if _, err := newTestService(t, defaultTestConfig(), docs, first, nil).Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("first Build returned error: %v", err)
	}

	second := storage.NewMemory()
	if _, err := newTestService(t, defaultTestConfig(), docs, second, nil).Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}

	firstPaths := first.Paths()
	secondPaths := second.Paths()
	if len(firstPaths) != len(secondPaths) {
		t.Fatalf("path sets differ: %v vs %v", firstPaths, secondPaths)
	}
	for _, path := range firstPaths {
		a, _ := first.File(path)
		b, ok := second.File(path)
		if !ok {
			t.Fatalf("second run missing %s", path)
		}
		if string(a) != string(b) {
			t.Errorf("artifact %s differs between identical runs", path)
		}
	}
}

func TestBuildIncrementalSkipsUnchanged(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/alpha", "1", "alpha body", true),
		testDoc("b.md", "/beta", "2", "beta body", true),
	}
	cfg := defaultTestConfig()
	cfg.Incremental = true

	store := storage.NewMemory()
	renderer := &recordingRenderer{}
	svc := newTestService(t, cfg, docs, store, renderer)

	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("first Build returned error: %v", err)
	}
	if renderer.documentCalls() != 2 {
		t.Fatalf("first run rendered %d documents, want 2", renderer.documentCalls())
	}

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}
	if result.DocumentsSkipped != 2 {
		t.Errorf("DocumentsSkipped = %d, want 2", result.DocumentsSkipped)
	}
	if result.DocumentsBuilt != 0 {
		t.Errorf("DocumentsBuilt = %d, want 0", result.DocumentsBuilt)
	}
	if renderer.documentCalls() != 2 {
		t.Errorf("unchanged documents were re-rendered: %d calls", renderer.documentCalls())
	}

	// Force bypasses the manifest check.
	if _, err := svc.Build(context.Background(), BuildOptions{Force: true}); err != nil {
		t.Fatalf("forced Build returned error: %v", err)
	}
	if renderer.documentCalls() != 4 {
		t.Errorf("force should re-render everything, got %d calls", renderer.documentCalls())
	}
}

func TestBuildDraftsRouting(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/published", "1", "live", true),
		testDoc("b.md", "/hidden", "2", "draft", false),
	}
	cfg := defaultTestConfig()
	cfg.RenderDrafts = true

	store := storage.NewMemory()
	svc := newTestService(t, cfg, docs, store, nil)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.DraftsBuilt != 1 {
		t.Errorf("DraftsBuilt = %d, want 1", result.DraftsBuilt)
	}

	if _, ok := store.File("site/drafts/hidden/index.html"); !ok {
		t.Errorf("draft missing from drafts prefix, paths: %v", store.Paths())
	}

	index, _ := store.File("site/index.html")
	if strings.Contains(string(index), "hidden") {
		t.Errorf("index must not list drafts: %q", index)
	}

	sitemap, _ := store.File("site/sitemap.xml")
	if strings.Contains(string(sitemap), "hidden") {
		t.Errorf("sitemap must not list drafts: %q", sitemap)
	}

	feed, _ := store.File("site/feed.atom.xml")
	if strings.Contains(string(feed), "hidden") {
		t.Errorf("feed must not list drafts: %q", feed)
	}

	robots, _ := store.File("site/robots.txt")
	if !strings.Contains(string(robots), "Disallow: /drafts/") {
		t.Errorf("robots should disallow the drafts prefix: %q", robots)
	}
}

func TestBuildUnpublishedSkippedByDefault(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/published", "1", "live", true),
		testDoc("b.md", "/hidden", "2", "draft", false),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.DocumentsBuilt != 1 || result.DraftsBuilt != 0 {
		t.Errorf("built %d/%d, want 1 published and 0 drafts", result.DocumentsBuilt, result.DraftsBuilt)
	}
	for _, path := range store.Paths() {
		if strings.Contains(path, "hidden") {
			t.Errorf("unpublished document leaked into output: %s", path)
		}
	}
}

func TestBuildIdentifierFilter(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/alpha", "1", "alpha", true),
		testDoc("b.md", "/beta", "2", "beta", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	result, err := svc.Build(context.Background(), BuildOptions{Identifiers: []string{"alpha"}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.DocumentsBuilt != 1 {
		t.Errorf("DocumentsBuilt = %d, want 1", result.DocumentsBuilt)
	}
	if _, ok := store.File("site/beta/index.html"); ok {
		t.Error("filtered-out document should not be written")
	}

	// The index still reflects the whole collection.
	index, _ := store.File("site/index.html")
	if string(index) != "<index>alpha,beta</index>" {
		t.Errorf("index = %q, want the full collection", index)
	}
}

func TestBuildSchemaValidation(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []any{"category"},
	}
	cfg := defaultTestConfig()
	cfg.FrontMatterSchema = schema

	doc := testDoc("a.md", "/a", "1", "body", true)
	doc.FrontMatter.Raw = map[string]any{"title": "a", "published": true}

	store := storage.NewMemory()
	svc := newTestService(t, cfg, []*interfaces.Document{doc}, store, nil)

	_, err := svc.Build(context.Background(), BuildOptions{})
	if err == nil {
		t.Fatal("expected schema validation failure")
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("validation failure must not write output, wrote %v", paths)
	}
}

func TestBuildConcurrentRendering(t *testing.T) {
	docs := make([]*interfaces.Document, 0, 16)
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("doc-%02d", i)
		docs = append(docs, testDoc(id+".md", "/"+id, fmt.Sprintf("%d", i), "body "+id, true))
	}
	cfg := defaultTestConfig()
	cfg.Workers = 4

	svc := newTestService(t, cfg, docs, storage.NewMemory(), nil)
	result, err := svc.Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.DocumentsBuilt != 16 {
		t.Fatalf("DocumentsBuilt = %d, want 16", result.DocumentsBuilt)
	}
	for i, doc := range result.Rendered {
		want := fmt.Sprintf("doc-%02d", i)
		if doc.Identifier != want {
			t.Fatalf("rendered[%d] = %s, want %s (collection order)", i, doc.Identifier, want)
		}
	}
}

func TestCleanRemovesArtifacts(t *testing.T) {
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "body", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, defaultTestConfig(), docs, store, nil)

	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(store.Paths()) == 0 {
		t.Fatal("expected artifacts before clean")
	}
	if err := svc.Clean(context.Background()); err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("Clean left artifacts: %v", paths)
	}
}

func TestCleanWithRootOutputDir(t *testing.T) {
	// The CLI roots the storage provider at the output directory and leaves
	// OutputDir empty; Clean must still wipe the whole root.
	cfg := defaultTestConfig()
	cfg.OutputDir = ""
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "body", true),
	}
	store := storage.NewMemory()
	svc := newTestService(t, cfg, docs, store, nil)

	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(store.Paths()) == 0 {
		t.Fatal("expected artifacts before clean")
	}
	if err := svc.Clean(context.Background()); err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("Clean left artifacts: %v", paths)
	}
}

func TestBuildCleanBuildWithRootOutputDir(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.OutputDir = ""
	cfg.CleanBuild = true
	docs := []*interfaces.Document{
		testDoc("a.md", "/a", "1", "body", true),
	}
	store := storage.NewMemory()
	if _, err := store.Exec(context.Background(), storage.OpWrite, "stale/index.html", strings.NewReader("old")); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}
	svc := newTestService(t, cfg, docs, store, nil)

	if _, err := svc.Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if _, ok := store.File("stale/index.html"); ok {
		t.Error("clean build should remove stale artifacts")
	}
	if _, ok := store.File("a/index.html"); !ok {
		t.Errorf("expected rebuilt document, have %v", store.Paths())
	}
}

func TestBuildDraftPermalinkCollisionAborts(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.RenderDrafts = true
	docs := []*interfaces.Document{
		testDoc("a.md", "/same", "1", "published body", true),
		testDoc("b.md", "/same", "2", "draft body", false),
	}
	store := storage.NewMemory()
	svc := newTestService(t, cfg, docs, store, nil)

	_, err := svc.Build(context.Background(), BuildOptions{})
	if !errors.Is(err, collection.ErrDuplicateIdentifier) {
		t.Fatalf("error %v should wrap ErrDuplicateIdentifier", err)
	}
	if paths := store.Paths(); len(paths) != 0 {
		t.Errorf("failed build wrote artifacts: %v", paths)
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Errorf("Build error = %v, want ErrServiceDisabled", err)
	}
	if err := svc.Clean(context.Background()); !errors.Is(err, ErrServiceDisabled) {
		t.Errorf("Clean error = %v, want ErrServiceDisabled", err)
	}
}

func renderedIDs(docs []RenderedDocument) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Identifier)
	}
	return out
}
