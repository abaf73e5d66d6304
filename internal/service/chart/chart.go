// Package chart shapes a result set into a single-series chart description.
package chart

import (
	"querypilot/internal/domain"
	"querypilot/internal/heuristic"
)

// Build returns the chart for rs, or nil when there are no rows.
//
// The label column is the first label-like column (else the first column);
// the value column is the preferred numeric column other than the label.
// With no numeric column, or when a table is requested, the raw table is
// returned. An unknown requested type is inferred from the label column:
// line for date-like labels, bar otherwise.
func Build(requested domain.ChartType, rs *domain.RowSet) *domain.ChartConfig {
	if rs.Empty() {
		return nil
	}
	columns := rs.Columns
	label := heuristic.LabelColumn(columns)
	value := heuristic.PreferredColumn(
		heuristic.NumericColumns(columns, rs.Rows, label),
		heuristic.ChartValueTokens,
	)

	if value == "" || requested == domain.ChartTable {
		return Table(rs)
	}

	kind := requested
	if !kind.Known() {
		kind = domain.ChartBar
		if heuristic.IsDateLike(label) {
			kind = domain.ChartLine
		}
	}

	labels := make([]string, len(rs.Rows))
	data := make([]float64, len(rs.Rows))
	for i, row := range rs.Rows {
		labels[i] = heuristic.Label(row[label])
		data[i] = heuristic.ToFloat(row[value])
	}
	return &domain.ChartConfig{
		Type:     kind,
		Labels:   labels,
		Datasets: []domain.Dataset{{Name: value, Data: data}},
	}
}

// Table returns the tabular fallback for rs.
func Table(rs *domain.RowSet) *domain.ChartConfig {
	return &domain.ChartConfig{
		Type:    domain.ChartTable,
		Columns: rs.Columns,
		Rows:    rs.Rows,
	}
}
