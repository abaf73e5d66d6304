package domain

// Row maps a projected column name to its scalar value.
type Row map[string]any

// RowSet is an ordered result. Every row carries exactly the keys in Columns.
type RowSet struct {
	Columns []string
	Rows    []Row
	// RowsAffected is set instead of Rows for non-read statements.
	RowsAffected *int64
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Empty reports whether the set holds no rows.
func (rs *RowSet) Empty() bool { return rs.Len() == 0 }
