// Package dedup selects the eligible recipients for one execution pass.
//
// Eligibility is computed from the raw lead rows and the campaign's
// blacklist (sent, failed, and in-flight addresses). The output preserves
// input row order: batch selection and sender rotation both depend on a
// deterministic walk.
package dedup

import (
	"strings"

	"github.com/ignite/campaign-runner/internal/domain"
)

// Recipient pairs one kept lead row with its normalized address.
type Recipient struct {
	Email string
	Row   domain.LeadRow
}

// Normalize returns the canonical form of an address: surrounding
// whitespace trimmed, then lowercased.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ResolveEmailColumn returns the column holding recipient addresses.
// Resolution order: a column literally named "email" (case-sensitive),
// then "Emails", then the first column whose name contains "email"
// case-insensitively. The second return is false when no column matches.
func ResolveEmailColumn(columns []string) (string, bool) {
	for _, c := range columns {
		if c == "email" {
			return c, true
		}
	}
	for _, c := range columns {
		if c == "Emails" {
			return c, true
		}
	}
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), "email") {
			return c, true
		}
	}
	return "", false
}

// Eligible walks leads in original order and keeps the first occurrence of
// every normalized address that is not blacklisted. Rows with no resolvable
// or empty address are dropped. An empty result is a valid terminal state,
// not an error.
func Eligible(leads domain.LeadList, blacklist map[string]struct{}) []Recipient {
	col, ok := ResolveEmailColumn(leads.Columns)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{}, len(leads.Rows))
	var out []Recipient
	for _, row := range leads.Rows {
		email := Normalize(row[col])
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		if _, blocked := blacklist[email]; blocked {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, Recipient{Email: email, Row: row})
	}
	return out
}
