// Package templates provides the default HTML rendering surface. A small set
// of embedded templates covers document and index pages out of the box, and a
// directory of .html/.tmpl files can extend or replace them.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

//go:embed defaults/*.tmpl
var defaultTemplates embed.FS

// Renderer implements interfaces.TemplateRenderer over html/template.
type Renderer struct {
	baseDir string
	once    sync.Once
	tpl     *template.Template
	err     error
}

// NewRenderer returns a renderer backed by the embedded defaults.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// NewRendererWithDir layers templates from baseDir over the embedded
// defaults. Files whose define blocks share a name with a default override it.
func NewRendererWithDir(baseDir string) *Renderer {
	return &Renderer{baseDir: baseDir}
}

func (r *Renderer) ensureTemplates() (*template.Template, error) {
	r.once.Do(func() {
		tpl := template.New("sitegen").Funcs(templateFuncs())
		tpl, r.err = tpl.ParseFS(defaultTemplates, "defaults/*.tmpl")
		if r.err != nil {
			return
		}
		if r.baseDir != "" {
			tpl, r.err = parseDir(tpl, r.baseDir)
			if r.err != nil {
				return
			}
		}
		r.tpl = tpl
	})
	return r.tpl, r.err
}

func parseDir(tpl *template.Template, baseDir string) (*template.Template, error) {
	var files []string
	err := filepath.WalkDir(baseDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".html" && ext != ".tmpl" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return tpl, nil
	}
	return tpl.ParseFiles(files...)
}

// Render executes the named template. When a writer is supplied output is
// streamed to it and the returned string is empty.
func (r *Renderer) Render(name string, data any, out ...io.Writer) (string, error) {
	tpl, err := r.ensureTemplates()
	if err != nil {
		return "", err
	}
	if tpl.Lookup(name) == nil {
		return "", fmt.Errorf("template %q not found", name)
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}

	if err := tpl.ExecuteTemplate(writer, name, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

// RenderString parses and executes a one-off template body.
func (r *Renderer) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tpl, err := template.New("inline").Funcs(templateFuncs()).Parse(content)
	if err != nil {
		return "", err
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}

	if err := tpl.Execute(writer, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(value any) template.HTML { return toHTML(value) },
		"formatTime": func(value time.Time, layout string) string {
			if value.IsZero() {
				return ""
			}
			return value.UTC().Format(layout)
		},
	}
}

func toHTML(value any) template.HTML {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	case []byte:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}
