// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"fmt"
	"strconv"
)

// Type tags the concrete type a schema descriptor coerces its column to.
type Type string

const (
	TypeInt      Type = "int"
	TypeFloat    Type = "float"
	TypeString   Type = "str"
	TypeCategory Type = "category"
)

// Descriptor declares how one feature column is coerced: nulls are
// replaced by Fill, then the column is cast to Type. Plain data on
// purpose, so descriptor lists serialize into run metadata and diff
// across model versions.
type Descriptor struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	Fill any    `json:"fill"`
}

// FeatureColumns returns the descriptor names in order.
func FeatureColumns(descriptors []Descriptor) []string {
	cols := make([]string, len(descriptors))
	for i, d := range descriptors {
		cols[i] = d.Name
	}
	return cols
}

// fillValue converts a descriptor's declared fill into a cell value.
func fillValue(fill any) (Value, error) {
	switch f := fill.(type) {
	case int:
		return Int(int64(f)), nil
	case int64:
		return Int(f), nil
	case float64:
		return Float(f), nil
	case string:
		return String(f), nil
	default:
		return Null(), fmt.Errorf("unsupported fill value %v (%T)", fill, fill)
	}
}

// castValue coerces one cell to the descriptor's type. Fill happens
// before cast, so by the time a value gets here it is never null.
func castValue(v Value, typ Type, column string) (Value, error) {
	fail := func() (Value, error) {
		return Null(), fmt.Errorf("cast column %s: cannot cast %q to %s", column, v.String(), typ)
	}
	switch typ {
	case TypeInt, TypeCategory:
		switch v.Kind() {
		case KindInt:
			return v, nil
		case KindFloat:
			return Int(v.Int()), nil
		case KindString:
			if typ == TypeCategory {
				return v, nil
			}
			if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
				return Int(i), nil
			}
			if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
				return Int(int64(f)), nil
			}
			return fail()
		default:
			return fail()
		}
	case TypeFloat:
		switch v.Kind() {
		case KindInt, KindFloat:
			return Float(v.Float()), nil
		case KindString:
			if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
				return Float(f), nil
			}
			return fail()
		default:
			return fail()
		}
	case TypeString:
		return String(v.String()), nil
	default:
		return Null(), fmt.Errorf("cast column %s: unknown type %q", column, typ)
	}
}

// ApplySchema coerces the table in place, descriptor by descriptor: fill
// nulls, then cast. A column a descriptor names but the table lacks is
// synthesized as all-null first; the serving path needs that before the
// online feature store has answered.
func ApplySchema(t *Table, descriptors []Descriptor) error {
	for _, d := range descriptors {
		if !t.HasColumn(d.Name) {
			nulls := make([]Value, t.Len())
			for i := range nulls {
				nulls[i] = Null()
			}
			if err := t.AddColumn(d.Name, nulls); err != nil {
				return err
			}
		}

		fill, err := fillValue(d.Fill)
		if err != nil {
			return fmt.Errorf("column %s: %w", d.Name, err)
		}

		src := t.Column(d.Name)
		out := make([]Value, len(src))
		for i, v := range src {
			if v.IsNull() {
				v = fill
			}
			cast, err := castValue(v, d.Type, d.Name)
			if err != nil {
				return err
			}
			out[i] = cast
		}
		if err := t.ReplaceColumn(d.Name, out); err != nil {
			return err
		}
	}
	return nil
}

// SelectFeatures projects the coerced table down to the descriptor
// columns, in descriptor order. Columns no descriptor covers are dropped.
func SelectFeatures(t *Table, descriptors []Descriptor) (*Table, error) {
	return t.Select(FeatureColumns(descriptors)...)
}

// TargetColumn extracts the label column as floats. A null label is a
// data contract violation.
func TargetColumn(t *Table, name string) ([]float64, error) {
	col := t.Column(name)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, name)
	}
	out := make([]float64, len(col))
	for i, v := range col {
		if v.IsNull() {
			return nil, fmt.Errorf("target column %s: null label at row %d", name, i)
		}
		out[i] = v.Float()
	}
	return out, nil
}

// Matrix is the strictly typed feature matrix handed to a predictor.
type Matrix struct {
	Columns []string
	Rows    [][]Value
}

// ToMatrix materializes the descriptor columns of a coerced table in
// row-major order.
func ToMatrix(t *Table, descriptors []Descriptor) (*Matrix, error) {
	selected, err := SelectFeatures(t, descriptors)
	if err != nil {
		return nil, err
	}
	cols := selected.Columns()
	rows := make([][]Value, selected.Len())
	for i := range rows {
		row := make([]Value, len(cols))
		for j, c := range cols {
			row[j] = selected.Value(c, i)
		}
		rows[i] = row
	}
	return &Matrix{Columns: cols, Rows: rows}, nil
}
