package domain

// ForecastPoint is one projected period.
type ForecastPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// ForecastResult is either a diagnostic Note or a set of Points whose
// length equals Horizon.
type ForecastResult struct {
	Note     string          `json:"note,omitempty"`
	Horizon  int             `json:"horizon,omitempty"`
	TimeCol  string          `json:"time_col,omitempty"`
	ValueCol string          `json:"value_col,omitempty"`
	Points   []ForecastPoint `json:"points,omitempty"`
}

// ForecastNote builds a diagnostic result.
func ForecastNote(note string) *ForecastResult {
	return &ForecastResult{Note: note}
}

// IsNote reports whether the forecast could not run.
func (f *ForecastResult) IsNote() bool { return f != nil && f.Note != "" }
