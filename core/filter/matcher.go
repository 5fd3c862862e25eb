package filter

import (
	"strings"
	"time"
)

// Status values with special meaning under the equals operator.
const (
	StatusField  = "status"
	StatusActive = "active"
	StatusDone   = "done"
)

// Match evaluates one filter against one row using op, the operator resolved
// from the field's FilterConfig. Unknown operators match nothing.
func Match(row Row, f ActiveFilter, op Operator) bool {
	fieldValue, present := row[f.Field]

	switch op {
	case OperatorEquals:
		s, ok := f.Value.(Scalar)
		if !ok {
			return false
		}
		if f.Field == StatusField {
			return matchStatus(fieldValue, s.V)
		}
		return present && strictEqual(fieldValue, s.V)

	case OperatorContains:
		s, ok := f.Value.(Scalar)
		if !ok || !present {
			return false
		}
		return matchContains(fieldValue, s.V)

	case OperatorContainsOneOf:
		list, ok := f.Value.(List)
		if !ok || !present {
			return false
		}
		if items, isList := asList(fieldValue); isList {
			for _, want := range list {
				for _, have := range items {
					if strictEqual(have, want) {
						return true
					}
				}
			}
			return false
		}
		return equalsAny(fieldValue, list)

	case OperatorEqualsOneOf:
		list, ok := f.Value.(List)
		if !ok || !present {
			return false
		}
		return equalsAny(fieldValue, list)

	case OperatorBetweenInclusive:
		r, ok := f.Value.(Range)
		if !ok || !present {
			return false
		}
		return inRange(fieldValue, r.Min, r.Max)

	case OperatorBetweenDatesInclusive:
		r, ok := f.Value.(DateRange)
		if !ok {
			return true
		}
		return matchDates(fieldValue, r)

	default:
		return false
	}
}

// matchStatus applies the status policy: "active" is anything not done,
// "done" is exactly done, every other value matches nothing.
func matchStatus(fieldValue, want any) bool {
	switch want {
	case StatusActive:
		return fieldValue != StatusDone
	case StatusDone:
		return fieldValue == StatusDone
	default:
		return false
	}
}

func matchContains(fieldValue, want any) bool {
	switch v := fieldValue.(type) {
	case string:
		if want == nil {
			return false
		}
		return strings.Contains(v, scalarString(want))
	default:
		items, ok := asList(fieldValue)
		if !ok {
			return false
		}
		return equalsAny(want, items)
	}
}

func equalsAny(v any, list List) bool {
	for _, want := range list {
		if strictEqual(v, want) {
			return true
		}
	}
	return false
}

// matchDates keeps rows strictly between the bounds. Open bounds and values
// that are not dates are let through.
func matchDates(fieldValue any, r DateRange) bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return true
	}

	var t time.Time
	switch v := fieldValue.(type) {
	case string:
		parsed, ok := ParseDate(v)
		if !ok {
			return true
		}
		t = parsed
	case time.Time:
		t = v
	default:
		return true
	}
	return t.After(r.Start) && t.Before(r.End)
}
