package sqlguard

import (
	"regexp"
	"strings"

	"querypilot/internal/domain"
)

var (
	tableRefPattern = regexp.MustCompile("(?i)\\b(?:FROM|JOIN)\\s+(\"[^\"]+\"|`[^`]+`|\\[[^\\]]+\\]|[A-Za-z_][\\w.]*)")
	ctePattern      = regexp.MustCompile("(?i)(?:\\bWITH\\s+(?:RECURSIVE\\s+)?|,\\s*)(\"[^\"]+\"|[A-Za-z_]\\w*)\\s+AS\\s*\\(")
)

// ReferencedTables returns the distinct table names that directly follow
// FROM or JOIN, unquoted and without a schema prefix, in order of first
// appearance. Subqueries in FROM position are skipped.
func ReferencedTables(sqlText string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range tableRefPattern.FindAllStringSubmatch(sqlText, -1) {
		name := unquote(m[1])
		if i := strings.LastIndex(name, "."); i >= 0 && !isQuoted(m[1]) {
			name = name[i+1:]
		}
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// UnknownTables lists referenced tables that are neither in the snapshot
// (case-insensitive) nor defined as a CTE in the statement itself.
func UnknownTables(sqlText string, snap *domain.SchemaSnapshot) []string {
	ctes := make(map[string]bool)
	for _, m := range ctePattern.FindAllStringSubmatch(sqlText, -1) {
		ctes[strings.ToLower(unquote(m[1]))] = true
	}

	var unknown []string
	for _, t := range ReferencedTables(sqlText) {
		if ctes[strings.ToLower(t)] {
			continue
		}
		if _, ok := snap.ResolveTable(t); ok {
			continue
		}
		unknown = append(unknown, t)
	}
	return unknown
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '`' || s[0] == '[')
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
