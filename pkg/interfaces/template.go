package interfaces

import "io"

// TemplateRenderer turns a named template plus a data context into display
// output. The optional writer avoids buffering when callers stream artifacts
// straight to storage.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}
