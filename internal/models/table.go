package models

// Pipeline-managed column names. These are reserved: the pipeline creates
// them if absent and is the only writer for their cells.
const (
	ColPDFAvailable = "PDF Available"
	ColPDFID        = "PDF ID"
	ColPDFPath      = "PDF Path"
	ColMethodology  = "Methodology"
)

// Values for the "PDF Available" column.
const (
	AvailabilityYes    = "Yes"
	AvailabilityNo     = "No"
	AvailabilityFailed = "Failed"
)

// Table is the in-memory form of the tabular source of record: an ordered
// header row plus data rows. Cells are addressed by column name, never by
// position, so external edits that add columns do not break the pipeline.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a Table from raw sheet values, treating the first row as
// the header. Every row is padded to the full table width. A data row wider
// than the header widens the table with unnamed columns so no cell is lost;
// those cells survive write-back and the snapshot but are unreachable by
// name until the header row names them.
func NewTable(values [][]string) *Table {
	if len(values) == 0 {
		return &Table{}
	}
	width := len(values[0])
	for _, row := range values[1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	t := &Table{Columns: make([]string, width)}
	copy(t.Columns, values[0])
	for _, row := range values[1:] {
		padded := make([]string, width)
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// EnsureColumn appends the named column with empty cells if it is missing
// and returns its index. Existing columns are never moved.
func (t *Table) EnsureColumn(name string) int {
	if i := t.ColumnIndex(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Columns) - 1
}

// Get returns the cell at (row, column name), or "" if the column is absent.
func (t *Table) Get(row int, column string) string {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes the cell at (row, column name), creating the column if needed.
func (t *Table) Set(row int, column, value string) {
	if row < 0 || row >= len(t.Rows) {
		return
	}
	i := t.EnsureColumn(column)
	t.Rows[row][i] = value
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Values returns the header row followed by all data rows, the shape the
// tabular store and the CSV snapshot expect.
func (t *Table) Values() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, row := range t.Rows {
		out = append(out, append([]string(nil), row...))
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		c.Rows = append(c.Rows, append([]string(nil), row...))
	}
	return c
}
