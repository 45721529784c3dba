// Package resultset wraps a buffered query result behind a lazy cursor with
// typed, nullable value accessors.
//
// Row data is pulled from the underlying Handle only when a row is first
// requested, strictly in order, and retained for the lifetime of the
// ResultSet. A ResultSet is single-owner: it is read by the goroutine that
// ran the query and needs no internal locking.
package resultset

import (
	"fmt"
)

// Row is an ordered sequence of nullable values.
type Row []Value

// ResultSet is the outcome of one statement.
type ResultSet struct {
	h        Handle
	insertID int64

	rowCount    int
	columnCount int
	columnNames []string
	fetched     []Row
}

// New wraps h. Row and column counts are captured immediately; no row data
// is fetched. A nil h is the "no result" state of statements that do not
// produce rows, which is distinct from an empty result.
func New(h Handle, insertID int64) *ResultSet {
	rs := &ResultSet{h: h, insertID: insertID}
	if h != nil {
		rs.rowCount = h.NumRows()
		rs.columnCount = h.NumFields()
	}
	return rs
}

// IsNull reports whether the statement produced no result set.
func (rs *ResultSet) IsNull() bool { return rs.h == nil }

// InsertID returns the id generated by the statement. Only meaningful for INSERT.
func (rs *ResultSet) InsertID() int64 { return rs.insertID }

// RowCount returns the number of rows.
func (rs *ResultSet) RowCount() (int, error) {
	if rs.h == nil {
		return 0, fmt.Errorf("%w: cannot retrieve the row count", ErrNoResult)
	}
	return rs.rowCount, nil
}

// ColumnCount returns the number of columns.
func (rs *ResultSet) ColumnCount() (int, error) {
	if rs.h == nil {
		return 0, fmt.Errorf("%w: cannot retrieve the column count", ErrNoResult)
	}
	return rs.columnCount, nil
}

// ColumnIndex resolves a column name to its index. When several columns
// share a name the first one wins.
func (rs *ResultSet) ColumnIndex(name string) (int, error) {
	if rs.h == nil {
		return 0, fmt.Errorf("%w: cannot resolve column %q", ErrNoResult, name)
	}
	if rs.columnCount == 0 {
		return 0, fmt.Errorf("%w: cannot resolve column %q, there are no columns", ErrOutOfRange, name)
	}
	if rs.columnNames == nil {
		rs.columnNames = append([]string(nil), rs.h.FieldNames()...)
	}
	for i, n := range rs.columnNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// ValueAt returns the cell at (row, col), fetching rows up to and including
// row if they have not been fetched yet.
func (rs *ResultSet) ValueAt(row, col int) (Value, error) {
	switch {
	case rs.h == nil:
		return Value{}, fmt.Errorf("%w: cannot retrieve a value", ErrNoResult)
	case rs.columnCount == 0:
		return Value{}, fmt.Errorf("%w: there are no columns", ErrOutOfRange)
	case rs.rowCount == 0:
		return Value{}, fmt.Errorf("%w: there are no rows", ErrOutOfRange)
	case col < 0:
		return Value{}, fmt.Errorf("%w: column index %d is negative", ErrOutOfRange, col)
	case row < 0:
		return Value{}, fmt.Errorf("%w: row index %d is negative", ErrOutOfRange, row)
	case col >= rs.columnCount:
		return Value{}, fmt.Errorf("%w: column index %d, %d columns", ErrOutOfRange, col, rs.columnCount)
	case row >= rs.rowCount:
		return Value{}, fmt.Errorf("%w: row index %d, %d rows", ErrOutOfRange, row, rs.rowCount)
	}

	for len(rs.fetched) <= row {
		r, err := rs.h.FetchRow()
		if err != nil {
			return Value{}, fmt.Errorf("resultset: fetch row %d: %w", len(rs.fetched), err)
		}
		rs.fetched = append(rs.fetched, r)
	}
	return rs.fetched[row][col], nil
}

// Value returns the first column of the first row.
func (rs *ResultSet) Value() (Value, error) { return rs.ValueAt(0, 0) }

// Get returns the named column of the first row.
func (rs *ResultSet) Get(col string) (Value, error) { return rs.GetAt(0, col) }

// GetAt returns the named column of the given row.
func (rs *ResultSet) GetAt(row int, col string) (Value, error) {
	idx, err := rs.ColumnIndex(col)
	if err != nil {
		return Value{}, err
	}
	return rs.ValueAt(row, idx)
}

// Close releases the underlying handle. Subsequent calls are no-ops.
func (rs *ResultSet) Close() error {
	if rs.h == nil {
		return nil
	}
	h := rs.h
	rs.h = nil
	rs.fetched = nil
	return h.Close()
}
