package filter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order by ParseDate. Layouts without a zone are
// interpreted in the local time zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseDate parses an ISO-8601 style date or date-time string.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isNumber reports whether v holds one of Go's numeric kinds.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// ToDecimal converts numbers and numeric strings to a decimal. NaN and
// infinities have no decimal form and are rejected.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int8:
		return decimal.NewFromInt(int64(val)), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt32(val), true
	case int64:
		return decimal.NewFromInt(val), true
	case uint:
		return fromUint(uint64(val)), true
	case uint8:
		return fromUint(uint64(val)), true
	case uint16:
		return fromUint(uint64(val)), true
	case uint32:
		return fromUint(uint64(val)), true
	case uint64:
		return fromUint(val), true
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case decimal.Decimal:
		return val, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatUint(u, 10))
}

// strictEqual compares two values without type coercion. Numbers compare by
// value across Go numeric types; every other pair must share a comparable
// dynamic type.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumber(a) && isNumber(b) {
		da, okA := ToDecimal(a)
		db, okB := ToDecimal(b)
		return okA && okB && da.Equal(db)
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// inRange reports min <= v <= max. All-numeric operands (numbers or numeric
// strings) compare numerically; all-string operands compare lexically; any
// other mix does not match.
func inRange(v, min, max any) bool {
	if v == nil || min == nil || max == nil {
		return false
	}
	dv, okV := ToDecimal(v)
	dmin, okMin := ToDecimal(min)
	dmax, okMax := ToDecimal(max)
	if okV && okMin && okMax {
		return dmin.LessThanOrEqual(dv) && dv.LessThanOrEqual(dmax)
	}

	sv, okV := v.(string)
	smin, okMin := min.(string)
	smax, okMax := max.(string)
	if okV && okMin && okMax {
		return smin <= sv && sv <= smax
	}
	return false
}

// asList returns the elements of an array-valued field.
func asList(v any) (List, bool) {
	if v == nil {
		return nil, false
	}
	return ToList(v)
}

// scalarString renders a non-string scalar the way it reads in a row.
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}
