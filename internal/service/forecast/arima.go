package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// ARIMA is a fitted ARIMA(1,1,1) model without constant:
//
//	d_t = y_t - y_{t-1}
//	d_t = phi*d_{t-1} + e_t + theta*e_{t-1}
//
// estimated by conditional sum of squares (e_0 = 0) with phi and theta kept
// inside (-1, 1).
type ARIMA struct {
	Phi   float64
	Theta float64
	// SSE is the conditional sum of squared residuals at the optimum.
	SSE float64

	last  float64 // y_T
	diffs []float64
	resid []float64
}

// FitARIMA estimates the model over series, which must hold at least three
// observations.
func FitARIMA(series []float64) (*ARIMA, error) {
	if len(series) < 3 {
		return nil, fmt.Errorf("need at least 3 observations, got %d", len(series))
	}
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("series contains non-finite values")
		}
	}

	diffs := make([]float64, len(series)-1)
	for i := range diffs {
		diffs[i] = series[i+1] - series[i]
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sse, _ := css(diffs, math.Tanh(x[0]), math.Tanh(x[1]))
			return sse
		},
	}
	res, err := optimize.Minimize(problem, []float64{0.1, 0.1}, nil, &optimize.NelderMead{})
	if res == nil || len(res.X) != 2 || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		if err == nil {
			err = errors.New("optimizer returned no solution")
		}
		return nil, err
	}

	m := &ARIMA{
		Phi:   math.Tanh(res.X[0]),
		Theta: math.Tanh(res.X[1]),
		last:  series[len(series)-1],
		diffs: diffs,
	}
	m.SSE, m.resid = css(diffs, m.Phi, m.Theta)
	return m, nil
}

// css returns the conditional sum of squares and the residuals.
func css(d []float64, phi, theta float64) (float64, []float64) {
	e := make([]float64, len(d))
	var sse float64
	for t := 1; t < len(d); t++ {
		e[t] = d[t] - phi*d[t-1] - theta*e[t-1]
		sse += e[t] * e[t]
	}
	return sse, e
}

// Forecast projects the next h levels of the series.
func (m *ARIMA) Forecast(h int) []float64 {
	out := make([]float64, h)
	if h <= 0 {
		return out
	}
	n := len(m.diffs)
	d := m.Phi*m.diffs[n-1] + m.Theta*m.resid[n-1]
	level := m.last
	for i := 0; i < h; i++ {
		if i > 0 {
			d *= m.Phi
		}
		level += d
		out[i] = level
	}
	return out
}
