// Package personalize substitutes {{field}} placeholders in a template
// body with per-recipient field values.
package personalize

import (
	"regexp"
	"sort"

	"strings"

	"github.com/ignite/campaign-runner/internal/domain"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Render replaces every literal occurrence of {{name}} with the row's
// value for name, for each field in the row. Placeholders with no matching
// field are left verbatim. Fields are applied in sorted name order so the
// output is deterministic.
func Render(body string, row domain.LeadRow) string {
	if len(row) == 0 {
		return body
	}
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	out := body
	for _, name := range names {
		out = strings.ReplaceAll(out, "{{"+name+"}}", row[name])
	}
	return out
}

// Placeholders returns the distinct placeholder names referenced in body,
// in first-appearance order.
func Placeholders(body string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Missing returns the placeholders in body that none of the columns can
// fill. Useful for validating a template against an uploaded leads file
// before a campaign runs.
func Missing(body string, columns []string) []string {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	var out []string
	for _, name := range Placeholders(body) {
		if _, ok := have[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
