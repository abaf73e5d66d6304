package domain

// Pipeline status messages.
const (
	MessagePlanFailed = "LLM failed to produce a plan."
	MessageBlocked    = "Blocked unsafe SQL."
	MessageSuccess    = "Query executed successfully."
	MessageNoRows     = "No rows returned."
)

// Response is the single value returned by submit_query.
type Response struct {
	Intent   Intent          `json:"intent"`
	Query    *string         `json:"query"`
	Data     []Row           `json:"data"`
	Chart    *ChartConfig    `json:"chart"`
	Summary  *string         `json:"summary"`
	Forecast *ForecastResult `json:"forecast"`
	Message  string          `json:"message"`
}
