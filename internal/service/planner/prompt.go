package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"querypilot/internal/domain"
)

// Payload budgets for the JSON sections of the system prompt, in characters.
const (
	schemaMapBudget  = 4000
	dateRangesBudget = 2000
)

var dialectNotes = map[string]string{
	"sqlite3":  "SQLite only. No unsupported functions (DATEADD, GETDATE, INTERVAL, etc.). Use strftime('%Y-%m', col) for monthly buckets.",
	"duckdb":   "DuckDB SQL only. Use date_trunc('month', col) or strftime(col, '%Y-%m') for monthly buckets.",
	"postgres": "PostgreSQL only. Use to_char(date_trunc('month', col), 'YYYY-MM') for monthly buckets.",
}

// BuildSystemPrompt renders the instruction block sent with every planning
// request: output contract, schema, relationships, column map and date ranges.
func BuildSystemPrompt(dialect string, st *domain.CatalogState) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an assistant that interprets business questions for a %s database and produces an execution plan in strict JSON.

YOUR OUTPUT MUST BE VALID JSON with keys:
- "intent": "historical" or "forecast" (use "forecast" when the user asks for a prediction, next or future values)
- "chart_type": one of "line", "bar", "pie", "table"
- "sql": a single-line SELECT that retrieves the needed HISTORICAL data only

Chart type guidelines:
- "pie": proportions of a whole (e.g. sales by category)
- "bar": compare categories (e.g. top products, sales by region)
- "line": time trends (e.g. monthly sales)
- "table": raw listings

Constraints:
1) Table names with spaces MUST be in double quotes, e.g. "Order Details".
2) Prefer the relationships below for JOINs; do not invent tables or columns.
3) Assign short aliases to tables and always reference columns through the alias.
4) Only SELECT. Never INSERT, UPDATE, DELETE, DROP or ALTER.
5) %s
6) SQL must be ONE line, no newlines.

If the user asks for forecasting:
- Set intent = "forecast".
- STILL only return SQL that fetches the historical time series needed (e.g. monthly sales), one row per period, oldest first.
- Do NOT include forecast logic in SQL.
`, dialectLabel(dialect), dialectNote(dialect))

	snap := st.Snapshot
	b.WriteString("\nUse these relationships when relevant:\n")
	if len(snap.Relationships) == 0 {
		b.WriteString("(none provided)\n")
	}
	for _, r := range snap.Relationships {
		b.WriteString("- " + r.String() + "\n")
	}

	b.WriteString("\nSchema (tables and columns):\n")
	b.WriteString(snap.Text)
	b.WriteString("\n\nschema_dict (for validation hints):\n")
	b.WriteString(truncate(indentJSON(snap.Columns), schemaMapBudget))
	b.WriteString("\n\nDate ranges (optional):\n")
	ranges := st.DateRanges
	if ranges == nil {
		ranges = domain.DateRanges{}
	}
	b.WriteString(truncate(indentJSON(ranges), dateRangesBudget))
	b.WriteString("\n\nNow output ONLY the JSON plan for this user query. Do NOT include explanations or markdown.\n")
	return b.String()
}

func dialectLabel(dialect string) string {
	switch dialect {
	case "duckdb":
		return "DuckDB"
	case "postgres":
		return "PostgreSQL"
	}
	return "SQLite"
}

func dialectNote(dialect string) string {
	if n, ok := dialectNotes[dialect]; ok {
		return n
	}
	return dialectNotes["sqlite3"]
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
