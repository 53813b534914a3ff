package publisher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-sitegen/internal/collection"
	"github.com/goliatone/go-sitegen/internal/logging"
	"github.com/goliatone/go-sitegen/internal/validation"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
	"github.com/goliatone/go-sitegen/pkg/storage"
)

var (
	// ErrServiceDisabled indicates the publisher feature is disabled.
	ErrServiceDisabled  = errors.New("publisher: service disabled")
	errLoaderRequired   = errors.New("publisher: document loader is required")
	errParserRequired   = errors.New("publisher: markdown parser is required")
	errRendererRequired = errors.New("publisher: template renderer is required")
)

const (
	templateDocument = "document"
	templateIndex    = "index"
	indexFileName    = "index.html"
)

// Service describes the publication pipeline contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the publisher.
type Config struct {
	ContentDir      string
	OutputDir       string
	BaseURL         string
	SiteTitle       string
	SiteDescription string
	Pattern         string
	Recursive       bool
	CleanBuild      bool
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeed    bool
	// RenderDrafts writes unpublished documents beneath an unlinked drafts
	// prefix. They never appear on the index, sitemap, or feed.
	RenderDrafts bool
	Workers      int
	// OrderPolicy is handed to the collection indexer; there is no implicit
	// process-wide default.
	OrderPolicy collection.OrderPolicy
	// FrontMatterSchema optionally constrains document metadata before
	// indexing. Schema failures are fatal like any malformed document.
	FrontMatterSchema map[string]any
}

// BuildOptions narrows the scope of a single run.
type BuildOptions struct {
	// Identifiers limits rendering to the named documents. The index still
	// reflects the whole collection.
	Identifiers []string
	DryRun      bool
	// Force bypasses incremental skip checks.
	Force bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	DocumentsBuilt   int
	DocumentsSkipped int
	DraftsBuilt      int
	Duration         time.Duration
	Rendered         []RenderedDocument
	Diagnostics      []RenderDiagnostic
	Errors           []error
	DryRun           bool
}

// Dependencies lists the collaborators required by the publisher.
type Dependencies struct {
	Loader   interfaces.DocumentLoader
	Parser   interfaces.MarkdownParser
	Renderer interfaces.TemplateRenderer
	Storage  interfaces.StorageProvider
	Logs     interfaces.LoggerProvider
}

// NewService wires a publisher with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return &service{
		cfg:  cfg,
		deps: deps,
		log:  logging.PublisherLogger(deps.Logs),
		now:  time.Now,
	}
}

// NewDisabledService returns a Service that fails all operations with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg  Config
	deps Dependencies
	log  interfaces.Logger
	now  func() time.Time
}

type disabledService struct{}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}

// renderJob pairs a collection entry with its draft flag for the worker pool.
type renderJob struct {
	entry collection.Entry
	draft bool
}

// Build runs the full Loader -> Indexer -> Publisher pipeline. The load,
// index, and render phases are pure; nothing touches storage until every
// document has rendered cleanly, so a failed run never leaves partial output
// behind.
func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Loader == nil {
		return nil, errLoaderRequired
	}
	if s.deps.Parser == nil {
		return nil, errParserRequired
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	start := s.now()
	generatedAt := start.UTC()

	schema, err := validation.CompileSchema(s.cfg.FrontMatterSchema)
	if err != nil {
		return nil, err
	}

	docs, err := s.deps.Loader.LoadDirectory(ctx, s.cfg.ContentDir, interfaces.LoadOptions{
		Pattern:   s.cfg.Pattern,
		Recursive: boolPtr(s.cfg.Recursive),
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("documents loaded", "count", len(docs))

	for _, doc := range docs {
		if err := schema.ValidateMetadata(doc.FilePath, doc.FrontMatter.Raw); err != nil {
			return nil, err
		}
	}

	coll, err := collection.Build(docs, collection.Config{
		Policy:             s.cfg.OrderPolicy,
		IncludeUnpublished: s.cfg.RenderDrafts,
	})
	if err != nil {
		return nil, err
	}

	jobs := s.renderJobs(coll, opts)

	result := &BuildResult{
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(jobs)),
	}

	siteMeta := SiteMetadata{
		Title:       s.cfg.SiteTitle,
		Description: s.cfg.SiteDescription,
		BaseURL:     strings.TrimRight(s.cfg.BaseURL, "/"),
	}
	buildMeta := BuildMetadata{
		GeneratedAt: generatedAt,
		Options:     opts,
	}

	manifest := newBuildManifest()
	if s.cfg.Incremental && !s.cfg.CleanBuild {
		loaded, manifestErr := s.loadManifest(ctx)
		if manifestErr != nil {
			// A corrupt manifest only disables skipping; rendering proceeds.
			s.log.Warn("manifest unusable, rendering everything", "error", manifestErr)
		} else {
			manifest = loaded
		}
	}

	var (
		mu       sync.Mutex
		rendered = make([]RenderedDocument, 0, len(jobs))
		failures []error
	)

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			failures = append(failures, outcome.err)
			return
		}
		if outcome.skipped {
			result.DocumentsSkipped++
			return
		}
		if outcome.doc.Draft {
			result.DraftsBuilt++
		} else {
			result.DocumentsBuilt++
		}
		rendered = append(rendered, outcome.doc)
	}

	if err := s.renderAll(ctx, jobs, siteMeta, buildMeta, manifest, opts, collect); err != nil {
		failures = append(failures, err)
	}

	result.Duration = s.now().Sub(start)
	if len(failures) > 0 {
		result.Errors = append(result.Errors, failures...)
		return result, errors.Join(failures...)
	}

	// Deterministic output ordering regardless of worker interleaving.
	sortRendered(rendered, coll)
	result.Rendered = rendered

	if opts.DryRun {
		return result, nil
	}

	writer := newArtifactWriter(s.deps.Storage)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")

	if s.cfg.CleanBuild {
		if err := writer.Remove(ctx, baseDir); err != nil {
			result.Errors = append(result.Errors, err)
			return result, err
		}
	}

	if err := s.persistDocuments(ctx, writer, baseDir, result.Rendered); err != nil {
		result.Errors = append(result.Errors, err)
		return result, err
	}

	if err := s.writeIndex(ctx, writer, baseDir, siteMeta, buildMeta, coll); err != nil {
		result.Errors = append(result.Errors, err)
		return result, err
	}

	sitemapDocs := s.mergeForListing(coll, result.Rendered, manifest)

	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, baseDir, siteMeta, sitemapDocs, generatedAt); err != nil {
			result.Errors = append(result.Errors, err)
			return result, err
		}
	}

	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, baseDir, siteMeta, generatedAt); err != nil {
			result.Errors = append(result.Errors, err)
			return result, err
		}
	}

	if s.cfg.GenerateFeed {
		if err := s.writeFeed(ctx, writer, baseDir, siteMeta, sitemapDocs, generatedAt); err != nil {
			result.Errors = append(result.Errors, err)
			return result, err
		}
	}

	manifest.GeneratedAt = generatedAt
	keep := map[string]struct{}{}
	for _, doc := range result.Rendered {
		manifest.set(manifestEntry{
			Identifier:   doc.Identifier,
			Route:        doc.Route,
			Output:       doc.Output,
			SourceHash:   doc.SourceHash,
			Checksum:     doc.Checksum,
			LastModified: doc.Modified,
			RenderedAt:   generatedAt,
			Draft:        doc.Draft,
		})
	}
	for _, entry := range coll.Entries() {
		keep[manifest.key(entry.Identifier)] = struct{}{}
	}
	for _, entry := range coll.Drafts() {
		keep[manifest.key(entry.Identifier)] = struct{}{}
	}
	manifest.prune(keep)
	if err := s.persistManifest(ctx, writer, baseDir, manifest); err != nil {
		result.Errors = append(result.Errors, err)
		return result, err
	}

	result.Duration = s.now().Sub(start)
	s.log.Info("build complete",
		"documents", result.DocumentsBuilt,
		"skipped", result.DocumentsSkipped,
		"drafts", result.DraftsBuilt,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// Clean removes every artifact beneath the configured output prefix.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	writer := newArtifactWriter(s.deps.Storage)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return writer.Remove(ctx, baseDir)
}

func (s *service) renderJobs(coll *collection.Collection, opts BuildOptions) []renderJob {
	selected := func(identifier string) bool {
		if len(opts.Identifiers) == 0 {
			return true
		}
		for _, want := range opts.Identifiers {
			if strings.EqualFold(strings.Trim(want, "/"), identifier) {
				return true
			}
		}
		return false
	}

	jobs := make([]renderJob, 0, coll.Len())
	for _, entry := range coll.Entries() {
		if !selected(entry.Identifier) {
			continue
		}
		jobs = append(jobs, renderJob{entry: entry})
	}
	for _, entry := range coll.Drafts() {
		if !selected(entry.Identifier) {
			continue
		}
		jobs = append(jobs, renderJob{entry: entry, draft: true})
	}
	return jobs
}

func (s *service) renderAll(
	ctx context.Context,
	jobs []renderJob,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	manifest *buildManifest,
	opts BuildOptions,
	collect func(renderOutcome),
) error {
	workers := s.effectiveWorkerCount(len(jobs))
	if workers <= 1 || len(jobs) <= 1 {
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				collect(s.renderDocument(ctx, siteMeta, buildMeta, job, manifest, opts))
			}
		}
		return nil
	}

	queue := make(chan renderJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				select {
				case <-ctx.Done():
					collect(renderOutcome{
						diagnostic: RenderDiagnostic{
							Identifier: job.entry.Identifier,
							Path:       job.entry.Document.FilePath,
							Err:        ctx.Err(),
						},
						err: ctx.Err(),
					})
					return
				default:
					collect(s.renderDocument(ctx, siteMeta, buildMeta, job, manifest, opts))
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			return ctx.Err()
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
	return nil
}

func (s *service) renderDocument(
	ctx context.Context,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	job renderJob,
	manifest *buildManifest,
	opts BuildOptions,
) renderOutcome {
	entry := job.entry
	route := routeFor(entry.Identifier, job.draft)
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Identifier: entry.Identifier,
			Path:       entry.Document.FilePath,
			Route:      route,
		},
	}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		outcome.diagnostic.Err = ctx.Err()
		return outcome
	default:
	}

	sourceHash := hex.EncodeToString(entry.Document.Checksum)
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	output := joinOutputPath(baseDir, buildOutputPath(entry.Identifier, job.draft))

	if s.cfg.Incremental && !opts.Force && manifest.shouldSkip(entry.Identifier, sourceHash, output) {
		outcome.skipped = true
		outcome.diagnostic.Skipped = true
		return outcome
	}

	renderStart := time.Now()

	bodyHTML, err := s.deps.Parser.Parse(entry.Document.Body)
	if err != nil {
		failure := &RenderFailureError{
			Identifier: entry.Identifier,
			Path:       entry.Document.FilePath,
			Reason:     err,
		}
		outcome.err = failure
		outcome.diagnostic.Err = failure
		return outcome
	}

	templateCtx := TemplateContext{
		Site:     siteMeta,
		Document: documentContext(entry, string(bodyHTML), job.draft),
		Build:    buildMeta,
	}

	page, err := s.deps.Renderer.Render(templateDocument, templateCtx)
	duration := time.Since(renderStart)
	outcome.diagnostic.Duration = duration
	if err != nil {
		failure := &RenderFailureError{
			Identifier: entry.Identifier,
			Path:       entry.Document.FilePath,
			Reason:     fmt.Errorf("template %q: %w", templateDocument, err),
		}
		outcome.err = failure
		outcome.diagnostic.Err = failure
		return outcome
	}

	outcome.doc = RenderedDocument{
		Identifier: entry.Identifier,
		Title:      entry.Document.FrontMatter.Title,
		Route:      route,
		Output:     output,
		HTML:       page,
		Checksum:   computeHashFromString(page),
		Draft:      job.draft,
		Modified:   entry.Document.LastModified,
		Duration:   duration,
		SourceHash: sourceHash,
	}
	return outcome
}

func (s *service) persistDocuments(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	docs []RenderedDocument,
) error {
	if len(docs) == 0 {
		return nil
	}
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return err
		}
	}
	for _, doc := range docs {
		if err := ensureDir(ctx, writer, dirCache, parentDir(doc.Output)); err != nil {
			return err
		}
		metadata := map[string]string{
			"identifier": doc.Identifier,
			"route":      doc.Route,
		}
		if doc.Draft {
			metadata["draft"] = "true"
		}
		req := writeFileRequest{
			Path:        doc.Output,
			Content:     strings.NewReader(doc.HTML),
			Size:        int64(len(doc.HTML)),
			Category:    categoryDocument,
			ContentType: "text/html; charset=utf-8",
			Checksum:    doc.Checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) writeIndex(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	siteMeta SiteMetadata,
	buildMeta BuildMetadata,
	coll *collection.Collection,
) error {
	items := make([]IndexItem, 0, coll.Len())
	for _, entry := range coll.Entries() {
		items = append(items, IndexItem{
			Identifier: entry.Identifier,
			Title:      entry.Document.FrontMatter.Title,
			Route:      routeFor(entry.Identifier, false),
			Order:      entry.Order(),
			Author:     entry.Document.FrontMatter.Author,
		})
	}

	content, err := s.deps.Renderer.Render(templateIndex, IndexContext{
		Site:  siteMeta,
		Build: buildMeta,
		Items: items,
	})
	if err != nil {
		return fmt.Errorf("publisher: render index: %w", err)
	}

	target := joinOutputPath(baseDir, indexFileName)
	if err := ensureDir(ctx, writer, map[string]struct{}{}, parentDir(target)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryIndex,
		ContentType: "text/html; charset=utf-8",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"documents": fmt.Sprintf("%d", len(items)),
		},
	})
}

// mergeForListing combines this run's rendered documents with manifest
// records for documents skipped by incremental builds, so sitemap and feed
// output always covers the whole collection.
func (s *service) mergeForListing(
	coll *collection.Collection,
	rendered []RenderedDocument,
	manifest *buildManifest,
) []RenderedDocument {
	byID := make(map[string]RenderedDocument, len(rendered))
	for _, doc := range rendered {
		byID[doc.Identifier] = doc
	}

	out := make([]RenderedDocument, 0, coll.Len())
	for _, entry := range coll.Entries() {
		if doc, ok := byID[entry.Identifier]; ok {
			out = append(out, doc)
			continue
		}
		if record, ok := manifest.lookup(entry.Identifier); ok {
			out = append(out, RenderedDocument{
				Identifier: entry.Identifier,
				Title:      entry.Document.FrontMatter.Title,
				Route:      record.Route,
				Output:     record.Output,
				Checksum:   record.Checksum,
				Modified:   record.LastModified,
				SourceHash: record.SourceHash,
			})
			continue
		}
		out = append(out, RenderedDocument{
			Identifier: entry.Identifier,
			Title:      entry.Document.FrontMatter.Title,
			Route:      routeFor(entry.Identifier, false),
			Modified:   entry.Document.LastModified,
		})
	}
	return out
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	siteMeta SiteMetadata,
	docs []RenderedDocument,
	generatedAt time.Time,
) error {
	content := buildSitemap(siteMeta.BaseURL, docs, generatedAt)
	target := joinOutputPath(baseDir, "sitemap.xml")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, parentDir(target)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": generatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) writeRobots(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	siteMeta SiteMetadata,
	generatedAt time.Time,
) error {
	content := buildRobots(siteMeta.BaseURL, s.cfg.GenerateSitemap)
	target := joinOutputPath(baseDir, "robots.txt")
	if err := ensureDir(ctx, writer, map[string]struct{}{}, parentDir(target)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": generatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) writeFeed(
	ctx context.Context,
	writer artifactWriter,
	baseDir string,
	siteMeta SiteMetadata,
	docs []RenderedDocument,
	generatedAt time.Time,
) error {
	content := buildAtomFeed(siteMeta, docs, generatedAt)
	target := joinOutputPath(baseDir, feedFileName)
	if err := ensureDir(ctx, writer, map[string]struct{}{}, parentDir(target)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryFeed,
		ContentType: "application/atom+xml",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": generatedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) loadManifest(ctx context.Context) (*buildManifest, error) {
	if s.deps.Storage == nil {
		return newBuildManifest(), nil
	}
	target := s.manifestTargetPath()
	if strings.TrimSpace(target) == "" {
		return newBuildManifest(), nil
	}
	rows, err := s.deps.Storage.Query(ctx, storage.OpRead, target)
	if err != nil {
		return nil, fmt.Errorf("publisher: read manifest: %w", err)
	}
	if rows == nil {
		return newBuildManifest(), nil
	}
	defer rows.Close()
	if !rows.Next() {
		return newBuildManifest(), nil
	}
	var data []byte
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("publisher: scan manifest: %w", err)
	}
	return parseManifest(data)
}

func (s *service) manifestTargetPath() string {
	base := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	return joinOutputPath(base, manifestFileName)
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, baseDir string, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	target := s.manifestTargetPath()
	if err := ensureDir(ctx, writer, map[string]struct{}{}, parentDir(target)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        target,
		Content:     strings.NewReader(string(data)),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
		Metadata: map[string]string{
			"version": fmt.Sprintf("%d", manifest.Version),
		},
	})
}

func (s *service) effectiveWorkerCount(jobCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if jobCount > 0 && workers > jobCount {
		return jobCount
	}
	return workers
}

// sortRendered restores collection order after concurrent rendering: drafts
// trail published documents, both groups in their declared order.
func sortRendered(docs []RenderedDocument, coll *collection.Collection) {
	position := map[string]int{}
	for i, entry := range coll.Entries() {
		position[entry.Identifier] = i
	}
	offset := coll.Len()
	for i, entry := range coll.Drafts() {
		position[entry.Identifier] = offset + i
	}
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && position[docs[j].Identifier] < position[docs[j-1].Identifier]; j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func parentDir(target string) string {
	idx := strings.LastIndex(target, "/")
	if idx <= 0 {
		return ""
	}
	return target[:idx]
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func boolPtr(v bool) *bool {
	return &v
}
