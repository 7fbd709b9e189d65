package dataset

// ResultTable is the tabular result of a statement that produced a result set.
// It is built fresh for every call and owned by the caller.
// NULL cells are nil.
type ResultTable struct {
	Columns []string
	Rows    [][]any
}

// NewResultTable creates a result table.
func NewResultTable(columns []string, rows [][]any) *ResultTable {
	if rows == nil {
		rows = [][]any{}
	}
	return &ResultTable{Columns: columns, Rows: rows}
}

// NumRows returns the number of rows.
func (t *ResultTable) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (t *ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or nil when out of range.
func (t *ResultTable) Cell(row, col int) any {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return nil
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// Column returns every value of the named column, or nil if it does not exist.
func (t *ResultTable) Column(name string) []any {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}
