package contactform

import (
	_ "embed"
	"io/fs"

	"github.com/goliatone/go-contactform/pkg/renderers/vanilla"
)

//go:embed schema/contact.yaml
var contactSchema []byte

// ContactSchema returns a copy of the embedded OpenAPI document declaring the
// contact form.
func ContactSchema() []byte {
	return append([]byte(nil), contactSchema...)
}

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
