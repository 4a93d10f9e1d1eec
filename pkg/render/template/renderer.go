package template

import "io"

// TemplateRenderer executes named templates. Implementations write the
// result to every out writer as well as returning it.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
