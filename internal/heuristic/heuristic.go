// Package heuristic holds the string-matching rules that pick label, value
// and time columns out of a result set. Every rule is a pure function over
// column names and row values so each token-priority case can be probed
// directly.
package heuristic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"querypilot/internal/domain"
)

// Token lists, in priority order where order matters.
var (
	LabelTokens         = []string{"date", "month", "year", "period", "category", "region", "product", "name"}
	DateTokens          = []string{"date", "month", "year", "period"}
	ChartValueTokens    = []string{"sales", "revenue", "amount", "total", "value", "freight"}
	ForecastValueTokens = []string{"sales", "revenue", "amount", "total", "value"}
	ProfileTokens       = []string{"date"}
)

// NameMatches reports whether the lower-cased name contains any token.
func NameMatches(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// IsDateLike reports whether a column name suggests a temporal role.
func IsDateLike(name string) bool {
	return NameMatches(name, DateTokens)
}

// LabelColumn returns the first column matching LabelTokens, falling back to
// the first column. It returns "" for no columns.
func LabelColumn(columns []string) string {
	for _, c := range columns {
		if NameMatches(c, LabelTokens) {
			return c
		}
	}
	if len(columns) == 0 {
		return ""
	}
	return columns[0]
}

// TimeColumn returns the first date/period/month/year-like column, or "".
func TimeColumn(columns []string) string {
	for _, c := range columns {
		if IsDateLike(c) {
			return c
		}
	}
	return ""
}

// IsNumeric reports whether v counts as a number: any Go integer or float,
// or a string made of digits with at most one decimal point.
func IsNumeric(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case string:
		return isDigitString(x)
	}
	return false
}

func isDigitString(s string) bool {
	s = strings.Replace(s, ".", "", 1)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NumericColumns returns, in column order, every column other than exclude
// for which at least one row holds a numeric value.
func NumericColumns(columns []string, rows []domain.Row, exclude string) []string {
	var out []string
	for _, c := range columns {
		if c == exclude {
			continue
		}
		for _, r := range rows {
			if IsNumeric(r[c]) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// StrictNumericColumns returns, in column order, every column other than
// exclude whose non-nil values are all numeric and which has at least one
// non-nil value.
func StrictNumericColumns(columns []string, rows []domain.Row, exclude string) []string {
	var out []string
	for _, c := range columns {
		if c == exclude {
			continue
		}
		seen, ok := false, true
		for _, r := range rows {
			v := r[c]
			if v == nil {
				continue
			}
			seen = true
			if !IsNumeric(v) {
				ok = false
				break
			}
		}
		if seen && ok {
			out = append(out, c)
		}
	}
	return out
}

// PreferredColumn walks tokens in priority order and returns the first
// candidate whose lower-cased name contains the token; with no match it
// returns the first candidate, or "" when there are none.
func PreferredColumn(candidates []string, tokens []string) string {
	for _, tok := range tokens {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), tok) {
				return c
			}
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0]
}

// ToFloat coerces v to a finite float64, returning 0 for anything that does
// not parse.
func ToFloat(v any) float64 {
	f := toFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Label renders a cell as chart label text.
func Label(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
