// Package sqlguard is the hard safety boundary in front of the warehouse.
//
// It is a textual heuristic, not a SQL parser: any statement that mentions a
// mutating keyword as a whole word is vetoed. Column names such as
// update_flag do not match because the underscore is a word character.
package sqlguard

import (
	"regexp"
	"strings"

	"querypilot/internal/domain"
)

// MutatingKeywords is the fixed denylist.
var MutatingKeywords = []string{"UPDATE", "DELETE", "DROP", "INSERT", "ALTER"}

var (
	mutatingPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(MutatingKeywords, "|") + `)\b`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Check returns a *domain.UnsafeSQLError naming the first mutating keyword
// found in sqlText, or nil when the statement may run.
func Check(sqlText string) error {
	m := mutatingPattern.FindString(sqlText)
	if m == "" {
		return nil
	}
	return &domain.UnsafeSQLError{Keyword: strings.ToUpper(m), SQL: sqlText}
}

// IsSafe reports whether Check accepts sqlText.
func IsSafe(sqlText string) bool {
	return Check(sqlText) == nil
}

// Normalize collapses all whitespace runs to one space and trims the ends,
// yielding the single-line form plans are validated in.
func Normalize(sqlText string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(sqlText, " "))
}
