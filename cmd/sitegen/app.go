package main

import (
	"os"
	"path/filepath"

	"github.com/goliatone/go-sitegen/internal/commands"
	publishcmd "github.com/goliatone/go-sitegen/internal/commands/publish"
	"github.com/goliatone/go-sitegen/internal/config"
	"github.com/goliatone/go-sitegen/internal/loader"
	"github.com/goliatone/go-sitegen/internal/logging/gologger"
	"github.com/goliatone/go-sitegen/internal/markdown"
	"github.com/goliatone/go-sitegen/internal/publisher"
	"github.com/goliatone/go-sitegen/internal/templates"
	"github.com/goliatone/go-sitegen/pkg/interfaces"
	"github.com/goliatone/go-sitegen/pkg/storage"
)

// App wires configuration, logging, and the content pipeline together for
// the CLI commands.
type App struct {
	cfg       config.Config
	logs      interfaces.LoggerProvider
	publisher publisher.Service
	handlers  appHandlers
}

type appHandlers struct {
	build *publishcmd.BuildSiteHandler
	diff  *publishcmd.DiffSiteHandler
	clean *publishcmd.CleanSiteHandler
}

func newApp(flags *rootFlags) (*App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.contentDir != "" {
		cfg.Content.Dir = flags.contentDir
	}
	if flags.outputDir != "" {
		cfg.Output.Dir = flags.outputDir
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logs, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, err
	}

	schema, err := cfg.Content.LoadSchema()
	if err != nil {
		return nil, err
	}

	contentDir, err := filepath.Abs(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}

	docs := loader.New(os.DirFS(contentDir), loader.Config{
		BasePath:  contentDir,
		Pattern:   cfg.Content.Pattern,
		Recursive: cfg.Content.Recursive,
	})

	var renderer interfaces.TemplateRenderer
	if cfg.Output.TemplateDir != "" {
		renderer = templates.NewRendererWithDir(cfg.Output.TemplateDir)
	} else {
		renderer = templates.NewRenderer()
	}

	outputRoot, err := filepath.Abs(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	store := storage.NewFilesystem(outputRoot, ".")

	service := publisher.NewService(publisher.Config{
		ContentDir:        ".",
		OutputDir:         "",
		BaseURL:           cfg.Site.BaseURL,
		SiteTitle:         cfg.Site.Title,
		SiteDescription:   cfg.Site.Description,
		Pattern:           cfg.Content.Pattern,
		Recursive:         cfg.Content.Recursive,
		CleanBuild:        cfg.Output.Clean,
		Incremental:       cfg.Output.Incremental,
		GenerateSitemap:   cfg.Output.Sitemap,
		GenerateRobots:    cfg.Output.Robots,
		GenerateFeed:      cfg.Output.Feed,
		RenderDrafts:      cfg.Output.RenderDrafts,
		Workers:           cfg.Output.Workers,
		OrderPolicy:       cfg.Content.OrderPolicy(),
		FrontMatterSchema: schema,
	}, publisher.Dependencies{
		Loader:   docs,
		Parser:   markdown.NewGoldmarkParser(interfaces.ParseOptions{}),
		Renderer: renderer,
		Storage:  store,
		Logs:     logs,
	})

	gates := publishcmd.FeatureGates{
		PublisherEnabled: func() bool { return true },
	}
	cmdLogger := commands.CommandLogger(logs, "publish")

	return &App{
		cfg:       cfg,
		logs:      logs,
		publisher: service,
		handlers: appHandlers{
			build: publishcmd.NewBuildSiteHandler(service, cmdLogger, gates),
			diff:  publishcmd.NewDiffSiteHandler(service, cmdLogger, gates),
			clean: publishcmd.NewCleanSiteHandler(service, cmdLogger, gates),
		},
	}, nil
}
