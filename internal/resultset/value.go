package resultset

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Value is a single nullable cell of a result set.
type Value struct {
	s     string
	valid bool
}

// NullValue returns the SQL NULL value.
func NullValue() Value { return Value{} }

// TextValue returns a non-null value holding s.
func TextValue(s string) Value { return Value{s: s, valid: true} }

func fromNullString(ns sql.NullString) Value {
	return Value{s: ns.String, valid: ns.Valid}
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return !v.valid }

// Text returns the raw text of the value.
func (v Value) Text() (string, error) {
	if !v.valid {
		return "", fmt.Errorf("%w: cannot convert to string", ErrNullValue)
	}
	return v.s, nil
}

// Int parses the value as a base-10 int.
func (v Value) Int() (int, error) {
	if !v.valid {
		return 0, fmt.Errorf("%w: cannot convert to int", ErrNullValue)
	}
	n, err := strconv.Atoi(v.s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return n, nil
}

// Int64 parses the value as a base-10 int64.
func (v Value) Int64() (int64, error) {
	if !v.valid {
		return 0, fmt.Errorf("%w: cannot convert to int64", ErrNullValue)
	}
	n, err := strconv.ParseInt(v.s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return n, nil
}

// Bool is true when the integer value is nonzero.
func (v Value) Bool() (bool, error) {
	if !v.valid {
		return false, fmt.Errorf("%w: cannot convert to bool", ErrNullValue)
	}
	n, err := v.Int64()
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
