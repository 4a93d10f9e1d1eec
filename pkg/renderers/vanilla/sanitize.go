package vanilla

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	introPolicyOnce sync.Once
	introPolicy     *bluemonday.Policy
)

// sanitizeIntro cleans the form description, which may carry light markup
// from the schema, before it is emitted unescaped.
func sanitizeIntro(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(introSanitizer().Sanitize(trimmed))
}

func introSanitizer() *bluemonday.Policy {
	introPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("p", "br", "strong", "em", "b", "i", "code")
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowURLSchemes("mailto", "https")
		policy.RequireNoFollowOnLinks(true)
		introPolicy = policy
	})
	return introPolicy
}
