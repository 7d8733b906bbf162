package kusto

import (
	"regexp"
	"strings"
)

var paramPattern = regexp.MustCompile(`\\{([^}]+)\\}`)

// URIPattern converts an OpenAPI path into an anchored RE2 pattern where every
// {param} matches exactly one segment. With query set, a trailing query
// string is accepted.
func URIPattern(path string, query bool) string {
	escaped := regexp.QuoteMeta(path)
	result := paramPattern.ReplaceAllString(escaped, `[^/]+`)

	if query {
		return "^" + result + `(\?.*)?$`
	}
	return "^" + result + "$"
}

// Verbatim quotes s as a Kusto verbatim string literal
func Verbatim(s string) string {
	return `@"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// StringLiteral quotes s as a regular Kusto string literal
func StringLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
