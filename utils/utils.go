package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/strudel-science/runmonitor/core/filter"
)

// StructToRow converts a struct into a filter.Row keyed by its JSON field
// names. `json` tags, including omitempty, decide which fields appear.
//
// Values take their JSON shape: strings stay strings, numbers become
// float64, slices become []any and nested structs become map[string]any.
// time.Time fields become RFC 3339 strings, which the date operators parse.
//
// The input must be a struct or a non-nil pointer to one.
//
// Example:
//
//	type Run struct {
//		ID   string   `json:"id"`
//		Site []string `json:"site,omitempty"`
//	}
//	row, err := StructToRow(Run{ID: "42", Site: []string{"crux"}})
//	// row is filter.Row{"id": "42", "site": []any{"crux"}}
func StructToRow[T any](record T) (filter.Row, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer to a struct")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct or a pointer to a struct, got %s", val.Kind())
	}

	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("StructToRow: failed to marshal input record to JSON: %w", err)
	}

	var row filter.Row
	if err := json.Unmarshal(jsonBytes, &row); err != nil {
		return nil, fmt.Errorf("StructToRow: failed to unmarshal JSON to row: %w", err)
	}
	return row, nil
}

// StructsToRows converts every record with StructToRow, stopping at the
// first failure.
func StructsToRows[T any](records []T) ([]filter.Row, error) {
	rows := make([]filter.Row, 0, len(records))
	for i, record := range records {
		row, err := StructToRow(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RowToStruct is the inverse of StructToRow. T must be a struct type or a
// pointer to one.
func RowToStruct[T any](row filter.Row) (T, error) {
	var zero T

	if row == nil {
		return zero, fmt.Errorf("RowToStruct: input row cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("RowToStruct: generic type T must be a struct type (or pointer to struct), got %s", typ.Kind())
	}

	jsonBytes, err := json.Marshal(row)
	if err != nil {
		return zero, fmt.Errorf("RowToStruct: failed to marshal input row to JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("RowToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}
