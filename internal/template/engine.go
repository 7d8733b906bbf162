// Package template renders text templates that produce HCL and other
// configuration text.
package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"text/template"
)

// Engine renders a named set of templates loaded from a filesystem
type Engine struct {
	templates *template.Template
}

// NewEngine parses every template in fsys matching patterns
func NewEngine(fsys fs.FS, patterns ...string) (*Engine, error) {
	t, err := template.New("").
		Option("missingkey=error").
		Funcs(Funcs()).
		ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{templates: t}, nil
}

// Render executes the template called name with data
func (e *Engine) Render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Has reports whether a template called name was loaded
func (e *Engine) Has(name string) bool {
	return e.templates.Lookup(name) != nil
}

// Funcs returns the helpers available inside templates
func Funcs() template.FuncMap {
	return template.FuncMap{
		"hcl":       QuoteHCL,
		"hclEscape": EscapeHCL,
		"hclList":   QuoteHCLList,
	}
}

// QuoteHCL returns s as an HCL quoted string. Template sequences are escaped
// so the value is taken literally.
func QuoteHCL(s string) string {
	return EscapeHeredoc(strconv.Quote(s))
}

// EscapeHCL escapes s for use inside an HCL quoted string that also holds
// interpolations, without adding the surrounding quotes.
func EscapeHCL(s string) string {
	quoted := QuoteHCL(s)
	return quoted[1 : len(quoted)-1]
}

// QuoteHCLList returns values as an HCL list of quoted strings
func QuoteHCLList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = QuoteHCL(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// EscapeHeredoc escapes HCL interpolation and directive markers
func EscapeHeredoc(s string) string {
	s = strings.ReplaceAll(s, "${", "$${")
	return strings.ReplaceAll(s, "%{", "%%{")
}

// SanitizePath converts a path to an identifier fragment: braces are
// dropped and slashes become underscores.
func SanitizePath(pathPattern string) string {
	result := strings.ReplaceAll(pathPattern, "{", "")
	result = strings.ReplaceAll(result, "}", "")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.TrimPrefix(result, "_")
	result = strings.TrimSuffix(result, "_")
	return result
}

// FormatNumber renders v with the fewest digits that round-trip
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Percent renders a ratio as a percentage rounded to two decimals: 0.99 -> 99
func Percent(v float64) string {
	return FormatNumber(math.Round(v*10000) / 100)
}

// Indent prefixes every non-empty line of s with n spaces
func Indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
