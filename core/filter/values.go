package filter

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrInvalidValue is returned when a raw filter value does not have the shape
// its operator expects.
var ErrInvalidValue = errors.New("invalid filter value")

// Value is the closed set of filter value shapes. Each operator expects
// exactly one of them:
//
//	equals, contains                    -> Scalar
//	contains-one-of, equals-one-of      -> List
//	between-inclusive                   -> Range
//	between-dates-inclusive             -> DateRange
type Value interface {
	isValue()
}

// Scalar is a single comparable value.
type Scalar struct {
	V any
}

// List is a set of alternatives, matched with OR semantics.
type List []any

// Range is a closed interval over naturally ordered values.
type Range struct {
	Min any
	Max any
}

// DateRange bounds a date field. A zero bound is treated as absent.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (Scalar) isValue()    {}
func (List) isValue()      {}
func (Range) isValue()     {}
func (DateRange) isValue() {}

// Equals builds an equals filter.
func Equals(field string, v any) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorEquals, Value: Scalar{V: v}}
}

// Contains builds a substring filter.
func Contains(field string, v any) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorContains, Value: Scalar{V: v}}
}

// ContainsOneOf builds a filter matching scalar or array fields that share
// at least one of the values.
func ContainsOneOf(field string, values ...any) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorContainsOneOf, Value: List(values)}
}

// EqualsOneOf builds a filter matching scalar fields equal to any of the values.
func EqualsOneOf(field string, values ...any) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorEqualsOneOf, Value: List(values)}
}

// Between builds a closed numeric range filter.
func Between(field string, min, max any) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorBetweenInclusive, Value: Range{Min: min, Max: max}}
}

// BetweenDates builds a date range filter. Pass a zero time to leave a bound
// open, which disables the filter.
func BetweenDates(field string, start, end time.Time) ActiveFilter {
	return ActiveFilter{Field: field, Operator: OperatorBetweenDatesInclusive, Value: DateRange{Start: start, End: end}}
}

// NewActiveFilter converts a raw widget value into the shape the operator
// expects. It is the validation boundary for filter values: the matcher
// itself never rejects a value.
func NewActiveFilter(field string, op Operator, raw any) (ActiveFilter, error) {
	f := ActiveFilter{Field: field, Operator: op}
	invalid := func(reason string) (ActiveFilter, error) {
		return ActiveFilter{}, fmt.Errorf("%w: field %q, operator %q: %s", ErrInvalidValue, field, op, reason)
	}

	switch op {
	case OperatorEquals, OperatorContains:
		if raw == nil {
			return invalid("value is required")
		}
		if _, isList := ToList(raw); isList {
			return invalid(fmt.Sprintf("expected a single value, got %T", raw))
		}
		f.Value = Scalar{V: raw}
	case OperatorContainsOneOf, OperatorEqualsOneOf:
		list, ok := ToList(raw)
		if !ok {
			return invalid(fmt.Sprintf("expected a list, got %T", raw))
		}
		f.Value = list
	case OperatorBetweenInclusive:
		list, ok := ToList(raw)
		if !ok || len(list) != 2 {
			return invalid("expected a [min, max] pair")
		}
		f.Value = Range{Min: list[0], Max: list[1]}
	case OperatorBetweenDatesInclusive:
		list, ok := ToList(raw)
		if !ok || len(list) != 2 {
			return invalid("expected a [start, end] pair")
		}
		start, err := dateBound(list[0])
		if err != nil {
			return invalid(err.Error())
		}
		end, err := dateBound(list[1])
		if err != nil {
			return invalid(err.Error())
		}
		f.Value = DateRange{Start: start, End: end}
	default:
		// Unknown operators fail closed at match time; keep whatever shape
		// the caller handed us so the filter remains inspectable.
		if list, ok := ToList(raw); ok {
			f.Value = list
		} else {
			f.Value = Scalar{V: raw}
		}
	}
	return f, nil
}

// ToList converts any slice or array into a List. Byte slices are not lists.
func ToList(raw any) (List, bool) {
	switch v := raw.(type) {
	case List:
		return v, true
	case []any:
		return List(v), true
	case []string:
		out := make(List, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(raw)
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte is a string in disguise, not a list of alternatives.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make(List, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Raw returns v in the raw shape NewActiveFilter accepts: the scalar itself,
// a list, or a two-element pair. Zero date bounds come back as nil.
func Raw(v Value) any {
	switch val := v.(type) {
	case Scalar:
		return val.V
	case List:
		return []any(val)
	case Range:
		return []any{val.Min, val.Max}
	case DateRange:
		pair := []any{nil, nil}
		if !val.Start.IsZero() {
			pair[0] = val.Start
		}
		if !val.End.IsZero() {
			pair[1] = val.End
		}
		return pair
	default:
		return nil
	}
}

// dateBound accepts empty values as an open bound, time.Time as-is, and
// date strings in any layout ParseDate understands.
func dateBound(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, ok := ParseDate(v)
		if !ok {
			return time.Time{}, fmt.Errorf("unparseable date bound %q", v)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date bound type %T", raw)
	}
}
