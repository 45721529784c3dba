package resultset

import (
	"database/sql"
	"errors"
	"fmt"
)

// Handle is a buffered result handle whose rows are pulled one at a time,
// in order. Metadata (row and field counts, field names) is available
// without fetching any row.
type Handle interface {
	NumRows() int
	NumFields() int
	FieldNames() []string
	// FetchRow returns the next row. Calling it more than NumRows times is an error.
	FetchRow() (Row, error)
	Close() error
}

// storedHandle holds a fully transferred result, the same way a client
// library stores a server result before the caller walks it.
type storedHandle struct {
	fields []string
	rows   []Row
	next   int
	closed bool
}

// StoreResult drains rows into a Handle and closes rows.
// The returned Handle owns the buffered data; rows may be reused by the
// driver as soon as StoreResult returns.
func StoreResult(rows *sql.Rows) (Handle, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("resultset.StoreResult columns: %w", err)
	}

	h := &storedHandle{fields: cols}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("resultset.StoreResult scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, ns := range cells {
			row[i] = fromNullString(ns)
		}
		h.rows = append(h.rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resultset.StoreResult rows: %w", err)
	}
	return h, nil
}

func (h *storedHandle) NumRows() int         { return len(h.rows) }
func (h *storedHandle) NumFields() int       { return len(h.fields) }
func (h *storedHandle) FieldNames() []string { return h.fields }

func (h *storedHandle) FetchRow() (Row, error) {
	if h.closed {
		return nil, errors.New("fetch from closed handle")
	}
	if h.next >= len(h.rows) {
		return nil, fmt.Errorf("fetch past last row (%d rows)", len(h.rows))
	}
	r := h.rows[h.next]
	h.next++
	return r, nil
}

func (h *storedHandle) Close() error {
	h.closed = true
	h.rows = nil
	return nil
}
