package engine

import (
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"querypilot/internal/domain"
)

// scanRows maps every row onto the query's projected column names.
func scanRows(rows *sql.Rows) (*domain.RowSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &domain.RowSet{Columns: cols, Rows: []domain.Row{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(domain.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(vals[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue makes driver values JSON- and chart-friendly. Binary values
// become text with invalid UTF-8 replaced, never raw bytes.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return strings.ToValidUTF8(string(x), "�")
	case time.Time:
		return formatTime(x)
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case interface{ Float64() float64 }:
		return x.Float64()
	}
	return v
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// textValue renders a scalar as profiling text.
func textValue(v any) string {
	switch x := normalizeValue(v).(type) {
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
