package domain

// Intent says whether a question asks for existing or projected data.
type Intent string

// Intents.
const (
	IntentHistorical Intent = "historical"
	IntentForecast   Intent = "forecast"
)

// ChartType names a chart rendering.
type ChartType string

// Chart types.
const (
	ChartLine  ChartType = "line"
	ChartBar   ChartType = "bar"
	ChartPie   ChartType = "pie"
	ChartTable ChartType = "table"
)

// Known reports whether c is one of the four supported chart kinds.
func (c ChartType) Known() bool {
	switch c {
	case ChartLine, ChartBar, ChartPie, ChartTable:
		return true
	}
	return false
}

// Plan is the decoded language-model decision for one question.
type Plan struct {
	Intent    Intent    `json:"intent"`
	ChartType ChartType `json:"chart_type"`
	// SQL is always single-line and whitespace-collapsed.
	SQL string `json:"sql"`
}
