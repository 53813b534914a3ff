// Package config loads sitegen settings from YAML with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-sitegen/internal/collection"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "SITEGEN_CONFIG"
	baseURLEnv     = "SITEGEN_BASE_URL"
	contentDirEnv  = "SITEGEN_CONTENT_DIR"
	outputDirEnv   = "SITEGEN_OUTPUT_DIR"
	logLevelEnv    = "SITEGEN_LOG_LEVEL"
	logFormatEnv   = "SITEGEN_LOG_FORMAT"
	workersEnv     = "SITEGEN_WORKERS"
	draftsEnv      = "SITEGEN_RENDER_DRAFTS"
	incrementalEnv = "SITEGEN_INCREMENTAL"
)

// Config holds the settings required across the application.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the site the collection renders into.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"base_url"`
}

// ContentConfig locates and constrains the source documents.
type ContentConfig struct {
	Dir       string `yaml:"dir"`
	Pattern   string `yaml:"pattern"`
	Recursive bool   `yaml:"recursive"`
	// Order selects the collection ordering policy: "numeric" or
	// "lexicographic". There is no implicit default beyond this field's.
	Order string `yaml:"order"`
	// SchemaFile optionally points at a JSON Schema document applied to each
	// document's front matter before indexing.
	SchemaFile string `yaml:"schema_file"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	Clean        bool   `yaml:"clean"`
	Incremental  bool   `yaml:"incremental"`
	Sitemap      bool   `yaml:"sitemap"`
	Robots       bool   `yaml:"robots"`
	Feed         bool   `yaml:"feed"`
	Workers      int    `yaml:"workers"`
	RenderDrafts bool   `yaml:"render_drafts"`
	TemplateDir  string `yaml:"template_dir"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

const (
	orderNumeric       = "numeric"
	orderLexicographic = "lexicographic"
)

// Default returns the baseline configuration before file and environment
// overrides are applied.
func Default() Config {
	return Config{
		Site: SiteConfig{
			BaseURL: "http://localhost:8080",
		},
		Content: ContentConfig{
			Dir:       "content",
			Pattern:   "*.md",
			Recursive: true,
			Order:     orderNumeric,
		},
		Output: OutputConfig{
			Dir:         "public",
			Incremental: true,
			Sitemap:     true,
			Robots:      true,
			Feed:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads YAML configuration from path (or the SITEGEN_CONFIG environment
// variable when path is empty) and applies environment overrides. A missing
// file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv(contentDirEnv); v != "" {
		c.Content.Dir = v
	}
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(workersEnv); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Output.Workers = workers
		}
	}
	if v := os.Getenv(draftsEnv); v != "" {
		if drafts, err := strconv.ParseBool(v); err == nil {
			c.Output.RenderDrafts = drafts
		}
	}
	if v := os.Getenv(incrementalEnv); v != "" {
		if incremental, err := strconv.ParseBool(v); err == nil {
			c.Output.Incremental = incremental
		}
	}
}

// Validate checks structural constraints before the configuration is used.
func (c Config) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(c.Content.Dir) == "" {
		errs["content.dir"] = validation.NewError("sitegen.config.content_dir_required", "content directory is required")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		errs["output.dir"] = validation.NewError("sitegen.config.output_dir_required", "output directory is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Content.Order)) {
	case orderNumeric, orderLexicographic:
	default:
		errs["content.order"] = validation.NewError("sitegen.config.order_invalid", "order must be numeric or lexicographic")
	}
	if c.Output.Workers < 0 {
		errs["output.workers"] = validation.NewError("sitegen.config.workers_invalid", "workers must be zero or positive")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// OrderPolicy maps the configured order string onto the collection policy.
func (c ContentConfig) OrderPolicy() collection.OrderPolicy {
	if strings.EqualFold(strings.TrimSpace(c.Order), orderLexicographic) {
		return collection.OrderLexicographic
	}
	return collection.OrderNumeric
}

// LoadSchema reads the configured front-matter schema file, returning nil
// when no schema is configured.
func (c ContentConfig) LoadSchema() (map[string]any, error) {
	path := strings.TrimSpace(c.SchemaFile)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read schema %s: %w", path, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("config: parse schema %s: %w", path, err)
	}
	return schema, nil
}
