package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatch_Equals(t *testing.T) {
	t.Run("Status active matches everything but done", func(t *testing.T) {
		f := Equals("status", "active")
		assert.True(t, Match(Row{"status": "running"}, f, OperatorEquals))
		assert.True(t, Match(Row{"status": "failed"}, f, OperatorEquals))
		assert.True(t, Match(Row{}, f, OperatorEquals), "a row without status is not done")
		assert.False(t, Match(Row{"status": "done"}, f, OperatorEquals))
	})

	t.Run("Status done matches only done", func(t *testing.T) {
		f := Equals("status", "done")
		assert.True(t, Match(Row{"status": "done"}, f, OperatorEquals))
		assert.False(t, Match(Row{"status": "Done"}, f, OperatorEquals))
		assert.False(t, Match(Row{"status": "running"}, f, OperatorEquals))
		assert.False(t, Match(Row{}, f, OperatorEquals))
	})

	t.Run("Status with any other value matches nothing", func(t *testing.T) {
		f := Equals("status", "running")
		assert.False(t, Match(Row{"status": "running"}, f, OperatorEquals))
	})

	t.Run("Other fields use strict equality", func(t *testing.T) {
		f := Equals("user", "ana")
		assert.True(t, Match(Row{"user": "ana"}, f, OperatorEquals))
		assert.False(t, Match(Row{"user": "Ana"}, f, OperatorEquals))
		assert.False(t, Match(Row{}, f, OperatorEquals))
	})

	t.Run("Numbers compare by value across types but never equal strings", func(t *testing.T) {
		f := Equals("days", 7)
		assert.True(t, Match(Row{"days": int64(7)}, f, OperatorEquals))
		assert.True(t, Match(Row{"days": 7.0}, f, OperatorEquals))
		assert.False(t, Match(Row{"days": "7"}, f, OperatorEquals))
	})

	t.Run("Array field never equals a scalar", func(t *testing.T) {
		f := Equals("tags", "a")
		assert.False(t, Match(Row{"tags": []string{"a"}}, f, OperatorEquals))
	})
}

func TestMatch_Contains(t *testing.T) {
	f := Contains("experiment_name", "soil")

	assert.True(t, Match(Row{"experiment_name": "topsoil-survey"}, f, OperatorContains))
	assert.False(t, Match(Row{"experiment_name": "Soil-survey"}, f, OperatorContains), "contains is case-sensitive")

	t.Run("Absent or non-searchable values do not match", func(t *testing.T) {
		assert.False(t, Match(Row{}, f, OperatorContains))
		assert.False(t, Match(Row{"experiment_name": nil}, f, OperatorContains))
		assert.False(t, Match(Row{"experiment_name": 42}, f, OperatorContains))
	})

	t.Run("Numeric needle is searched as text", func(t *testing.T) {
		assert.True(t, Match(Row{"id": "run-1042"}, Contains("id", 104), OperatorContains))
	})

	t.Run("Array field matches by element", func(t *testing.T) {
		assert.True(t, Match(Row{"tags": []string{"x", "soil"}}, f, OperatorContains))
		assert.False(t, Match(Row{"tags": []string{"topsoil"}}, f, OperatorContains))
	})
}

func TestMatch_ContainsOneOf(t *testing.T) {
	f := ContainsOneOf("tags", "a", "b")

	t.Run("Array field intersecting the list matches", func(t *testing.T) {
		assert.True(t, Match(Row{"tags": []string{"c", "b"}}, f, OperatorContainsOneOf))
		assert.True(t, Match(Row{"tags": []any{"a"}}, f, OperatorContainsOneOf))
		assert.False(t, Match(Row{"tags": []string{"c", "d"}}, f, OperatorContainsOneOf))
		assert.False(t, Match(Row{"tags": []string{}}, f, OperatorContainsOneOf))
	})

	t.Run("Scalar field equal to an element matches", func(t *testing.T) {
		assert.True(t, Match(Row{"tags": "a"}, f, OperatorContainsOneOf))
		assert.False(t, Match(Row{"tags": "ab"}, f, OperatorContainsOneOf))
	})

	t.Run("Absent field or non-list value does not match", func(t *testing.T) {
		assert.False(t, Match(Row{}, f, OperatorContainsOneOf))
		assert.False(t, Match(Row{"tags": "a"}, Equals("tags", "a"), OperatorContainsOneOf))
	})

	t.Run("Empty list matches nothing", func(t *testing.T) {
		assert.False(t, Match(Row{"tags": "a"}, ContainsOneOf("tags"), OperatorContainsOneOf))
	})
}

func TestMatch_EqualsOneOf(t *testing.T) {
	f := EqualsOneOf("site", "crux", "dori")
	assert.True(t, Match(Row{"site": "dori"}, f, OperatorEqualsOneOf))
	assert.False(t, Match(Row{"site": "jgi"}, f, OperatorEqualsOneOf))
	assert.False(t, Match(Row{"site": []string{"crux"}}, f, OperatorEqualsOneOf), "scalar comparison only")
	assert.False(t, Match(Row{}, f, OperatorEqualsOneOf))
}

func TestMatch_BetweenInclusive(t *testing.T) {
	f := Between("duration", 10, 20)

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"lower bound is inclusive", 10, true},
		{"upper bound is inclusive", 20, true},
		{"inside", 15.5, true},
		{"below", 9.99, false},
		{"above", int64(21), false},
		{"numeric string", "12", true},
		{"non-numeric string", "abc", false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(Row{"duration": tt.value}, f, OperatorBetweenInclusive))
		})
	}

	t.Run("Absent field does not match", func(t *testing.T) {
		assert.False(t, Match(Row{}, f, OperatorBetweenInclusive))
	})

	t.Run("Decimal comparison avoids float drift", func(t *testing.T) {
		assert.True(t, Match(Row{"x": 0.3}, Between("x", "0.3", "0.3"), OperatorBetweenInclusive))
		assert.True(t, Match(Row{"x": "0.30"}, Between("x", "0.3", "0.3"), OperatorBetweenInclusive))
	})

	t.Run("All-string operands compare lexically", func(t *testing.T) {
		assert.True(t, Match(Row{"user": "bob"}, Between("user", "alice", "carol"), OperatorBetweenInclusive))
		assert.False(t, Match(Row{"user": "dave"}, Between("user", "alice", "carol"), OperatorBetweenInclusive))
	})
}

func TestMatch_BetweenDatesInclusive(t *testing.T) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	f := BetweenDates("start_time", start, end)

	t.Run("Strictly inside matches", func(t *testing.T) {
		assert.True(t, Match(Row{"start_time": "2025-10-15T12:00:00Z"}, f, OperatorBetweenDatesInclusive))
		assert.True(t, Match(Row{"start_time": start.Add(time.Second)}, f, OperatorBetweenDatesInclusive))
	})

	t.Run("Bounds themselves are excluded", func(t *testing.T) {
		assert.False(t, Match(Row{"start_time": "2025-10-01T00:00:00Z"}, f, OperatorBetweenDatesInclusive))
		assert.False(t, Match(Row{"start_time": "2025-10-31T00:00:00Z"}, f, OperatorBetweenDatesInclusive))
	})

	t.Run("Outside does not match", func(t *testing.T) {
		assert.False(t, Match(Row{"start_time": "2025-11-02T00:00:00Z"}, f, OperatorBetweenDatesInclusive))
	})

	t.Run("Open bounds let everything through", func(t *testing.T) {
		open := BetweenDates("start_time", start, time.Time{})
		assert.True(t, Match(Row{"start_time": "2030-01-01T00:00:00Z"}, open, OperatorBetweenDatesInclusive))
	})

	t.Run("Values that are not dates let the row through", func(t *testing.T) {
		assert.True(t, Match(Row{}, f, OperatorBetweenDatesInclusive))
		assert.True(t, Match(Row{"start_time": 12}, f, OperatorBetweenDatesInclusive))
		assert.True(t, Match(Row{"start_time": "not a date"}, f, OperatorBetweenDatesInclusive))
	})

	t.Run("A value of the wrong shape lets the row through", func(t *testing.T) {
		assert.True(t, Match(Row{"start_time": "2040-01-01"}, Equals("start_time", "x"), OperatorBetweenDatesInclusive))
	})
}

func TestMatch_UnknownOperator(t *testing.T) {
	assert.False(t, Match(Row{"a": "x"}, Equals("a", "x"), Operator("like")))
	assert.False(t, Match(Row{"a": "x"}, Equals("a", "x"), ""))
}
