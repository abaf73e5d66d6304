package domain

// Dataset is one numeric series of a chart.
type Dataset struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// ChartConfig is the normalized chart description. Type "table" carries
// Columns and Rows; line, bar and pie carry Labels and exactly one Dataset.
type ChartConfig struct {
	Type     ChartType `json:"type"`
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets,omitempty"`
	Columns  []string  `json:"columns,omitempty"`
	Rows     []Row     `json:"rows,omitempty"`
}
