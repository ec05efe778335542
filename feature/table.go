// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrJoinFanOut is returned when the right side of a one-to-one join
	// carries duplicate keys. A fan-out would change the row count of the
	// assembled feature set, which is a data contract violation.
	ErrJoinFanOut = errors.New("join fans out: duplicate key on right side")

	ErrColumnExists  = errors.New("column already exists")
	ErrColumnMissing = errors.New("column not found")
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Table is an ordered set of named, equally sized columns of nullable
// values. It is the explicit, written-out equivalent of the dataframe the
// feature pipeline is expressed against.
type Table struct {
	cols []string
	data map[string][]Value
	n    int
}

// NewTable creates an empty table with the given column order.
func NewTable(cols ...string) *Table {
	t := &Table{data: make(map[string][]Value, len(cols))}
	for _, c := range cols {
		t.cols = append(t.cols, c)
		t.data[c] = nil
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) []Value {
	return t.data[name]
}

// Value returns one cell.
func (t *Table) Value(name string, row int) Value {
	col, ok := t.data[name]
	if !ok {
		return Null()
	}
	return col[row]
}

// AppendRow appends one row; values must match the column order.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrLengthMismatch, len(vals), len(t.cols))
	}
	for i, c := range t.cols {
		t.data[c] = append(t.data[c], vals[i])
	}
	t.n++
	return nil
}

// AddColumn appends a new column. The column must match the row count
// unless the table is empty.
func (t *Table) AddColumn(name string, vals []Value) error {
	if t.HasColumn(name) {
		return fmt.Errorf("%w: %s", ErrColumnExists, name)
	}
	if len(t.cols) > 0 && len(vals) != t.n {
		return fmt.Errorf("%w: column %s has %d values, table has %d rows", ErrLengthMismatch, name, len(vals), t.n)
	}
	t.cols = append(t.cols, name)
	t.data[name] = vals
	if len(t.cols) == 1 {
		t.n = len(vals)
	}
	return nil
}

// ReplaceColumn swaps the content of an existing column in place.
func (t *Table) ReplaceColumn(name string, vals []Value) error {
	if !t.HasColumn(name) {
		return fmt.Errorf("%w: %s", ErrColumnMissing, name)
	}
	if len(vals) != t.n {
		return fmt.Errorf("%w: column %s has %d values, table has %d rows", ErrLengthMismatch, name, len(vals), t.n)
	}
	t.data[name] = vals
	return nil
}

// Select returns a new table with the named columns, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	out := &Table{data: make(map[string][]Value, len(cols)), n: t.n}
	for _, c := range cols {
		src, ok := t.data[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnMissing, c)
		}
		col := make([]Value, t.n)
		copy(col, src)
		out.cols = append(out.cols, c)
		out.data[c] = col
	}
	return out, nil
}

// SortBy returns a new table with rows stably sorted ascending by the
// named column. Nulls sort last.
func (t *Table) SortBy(name string) (*Table, error) {
	key, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, name)
	}
	idx := make([]int, t.n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return key[idx[a]].less(key[idx[b]])
	})
	return t.take(idx), nil
}

// Slice returns rows [i, j) as a new table.
func (t *Table) Slice(i, j int) *Table {
	idx := make([]int, 0, j-i)
	for r := i; r < j; r++ {
		idx = append(idx, r)
	}
	return t.take(idx)
}

func (t *Table) take(idx []int) *Table {
	out := &Table{data: make(map[string][]Value, len(t.cols)), n: len(idx)}
	for _, c := range t.cols {
		src := t.data[c]
		col := make([]Value, len(idx))
		for i, r := range idx {
			col[i] = src[r]
		}
		out.cols = append(out.cols, c)
		out.data[c] = col
	}
	return out
}

// LeftJoinOne left-joins right onto t by the named key column. Each left
// row matches at most one right row; a duplicate key on the right side is
// ErrJoinFanOut. Right columns whose name collides with a left column are
// renamed with rightSuffix; unmatched left rows get nulls.
func (t *Table) LeftJoinOne(right *Table, on string, rightSuffix string) (*Table, error) {
	leftKey, ok := t.data[on]
	if !ok {
		return nil, fmt.Errorf("%w: %s (left)", ErrColumnMissing, on)
	}
	rightKey, ok := right.data[on]
	if !ok {
		return nil, fmt.Errorf("%w: %s (right)", ErrColumnMissing, on)
	}
	if rightSuffix == "" {
		rightSuffix = "_right"
	}

	index := make(map[any]int, right.n)
	for r := 0; r < right.n; r++ {
		k := rightKey[r].key()
		if k == nil {
			continue
		}
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("%w: column %s value %s", ErrJoinFanOut, on, rightKey[r])
		}
		index[k] = r
	}

	out := &Table{data: make(map[string][]Value), n: t.n}
	for _, c := range t.cols {
		col := make([]Value, t.n)
		copy(col, t.data[c])
		out.cols = append(out.cols, c)
		out.data[c] = col
	}
	for _, c := range right.cols {
		if c == on {
			continue
		}
		name := c
		if out.HasColumn(name) {
			name = c + rightSuffix
		}
		col := make([]Value, t.n)
		src := right.data[c]
		for i := 0; i < t.n; i++ {
			if r, match := index[leftKey[i].key()]; match {
				col[i] = src[r]
			} else {
				col[i] = Null()
			}
		}
		out.cols = append(out.cols, name)
		out.data[name] = col
	}
	return out, nil
}
