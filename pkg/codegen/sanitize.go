package codegen

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	docPolicyOnce sync.Once
	docPolicy     *bluemonday.Policy
)

// sanitizeDoc reduces a description to plain text suitable for a Go comment.
// OpenAPI descriptions frequently carry HTML; tags are dropped and entities
// decoded.
func sanitizeDoc(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	docPolicyOnce.Do(func() {
		docPolicy = bluemonday.StrictPolicy()
	})
	cleaned := html.UnescapeString(docPolicy.Sanitize(trimmed))
	return strings.TrimSpace(strings.ReplaceAll(cleaned, "\r\n", "\n"))
}
