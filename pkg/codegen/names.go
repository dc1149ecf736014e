package codegen

import (
	"go/token"
	"strings"
	"unicode"
)

var initialisms = map[string]bool{
	"API": true, "CPU": true, "DNS": true, "HTTP": true, "HTTPS": true,
	"ID": true, "IP": true, "JSON": true, "SQL": true, "TCP": true,
	"TLS": true, "TTL": true, "UDP": true, "UI": true, "URI": true,
	"URL": true, "UUID": true, "XML": true,
}

// exportName turns a field name such as "current_dir" or "started-at" into
// an exported Go identifier ("CurrentDir", "StartedAt"). Names that are
// already identifiers keep their inner casing.
func exportName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		if upper := strings.ToUpper(part); initialisms[upper] {
			b.WriteString(upper)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// slotName returns the unexported identifier used for a builder slot. A
// leading run of capitals is lowered as a unit ("URLPath" becomes "urlPath").
func slotName(name string) string {
	runes := []rune(exportName(name))
	if len(runes) == 0 {
		return ""
	}
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}
	if upper > 1 && upper < len(runes) {
		upper--
	}
	if upper == 0 {
		upper = 1
	}
	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	out := string(runes)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}
