// Package forecast projects a result set's time series forward with a fixed
// ARIMA(1,1,1) model.
package forecast

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"querypilot/internal/domain"
	"querypilot/internal/heuristic"
)

// MinHistory is the number of observations required before fitting.
const MinHistory = 6

// Diagnostic notes.
const (
	NoteNoData         = "No data to forecast."
	NoteNotEnoughData  = "Not enough history for ARIMA (need ~6+ points)."
	noteUndetectedCols = "Unable to detect time/value columns. Found time=%s, value=%s."
)

var timeLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// Forecaster turns historical rows into forecast points. Failures are
// reported as notes, never as errors.
type Forecaster struct {
	logger *slog.Logger
}

// NewForecaster creates a Forecaster.
func NewForecaster(logger *slog.Logger) *Forecaster {
	return &Forecaster{logger: logger.With("component", "forecast")}
}

type observation struct {
	raw   any
	at    time.Time
	value float64
}

// Forecast fits the series found in rs and projects horizon periods. A
// non-positive horizon is read from prompt, defaulting to 3.
func (f *Forecaster) Forecast(rs *domain.RowSet, horizon int, prompt string) *domain.ForecastResult {
	if horizon < 1 {
		horizon = HorizonFromPrompt(prompt, DefaultHorizon)
	}
	if rs.Empty() {
		return domain.ForecastNote(NoteNoData)
	}

	timeCol := heuristic.TimeColumn(rs.Columns)
	valueCol := heuristic.PreferredColumn(
		heuristic.StrictNumericColumns(rs.Columns, rs.Rows, timeCol),
		heuristic.ForecastValueTokens,
	)
	if timeCol == "" || valueCol == "" {
		return domain.ForecastNote(fmt.Sprintf(noteUndetectedCols, orNone(timeCol), orNone(valueCol)))
	}

	obs, dated := observations(rs.Rows, timeCol, valueCol)
	if len(obs) < MinHistory {
		return domain.ForecastNote(NoteNotEnoughData)
	}

	series := make([]float64, len(obs))
	for i, o := range obs {
		series[i] = o.value
	}
	model, err := FitARIMA(series)
	if err != nil {
		f.logger.Error("arima fit failed", "error", err)
		return domain.ForecastNote("ARIMA failed: " + err.Error())
	}
	values := model.Forecast(horizon)

	points := make([]domain.ForecastPoint, horizon)
	last := obs[len(obs)-1].at
	base := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ForecastNote("ARIMA failed: forecast is not finite")
		}
		label := fmt.Sprintf("T+%d", i+1)
		if dated {
			label = base.AddDate(0, i+1, 0).Format("2006-01")
		}
		points[i] = domain.ForecastPoint{Period: label, Value: v}
	}

	f.logger.Debug("forecast produced",
		"time_col", timeCol, "value_col", valueCol,
		"history", len(obs), "horizon", horizon,
		"phi", model.Phi, "theta", model.Theta)
	return &domain.ForecastResult{
		Horizon:  horizon,
		TimeCol:  timeCol,
		ValueCol: valueCol,
		Points:   points,
	}
}

// observations extracts (time, value) pairs sorted by time. dated reports
// whether every time value parsed as a calendar date.
func observations(rows []domain.Row, timeCol, valueCol string) ([]observation, bool) {
	obs := make([]observation, len(rows))
	dated := true
	for i, r := range rows {
		obs[i] = observation{raw: r[timeCol], value: heuristic.ToFloat(r[valueCol])}
		at, ok := parseTime(r[timeCol])
		if !ok {
			dated = false
		}
		obs[i].at = at
	}

	sort.SliceStable(obs, func(i, j int) bool {
		if dated {
			return obs[i].at.Before(obs[j].at)
		}
		return lessRaw(obs[i].raw, obs[j].raw)
	})
	return obs, dated
}

func lessRaw(a, b any) bool {
	if heuristic.IsNumeric(a) && heuristic.IsNumeric(b) {
		return heuristic.ToFloat(a) < heuristic.ToFloat(b)
	}
	return heuristic.Label(a) < heuristic.Label(b)
}

func parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
