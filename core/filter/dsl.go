// Package filter defines the declarative filter vocabulary used to narrow a
// set of run records, and the in-memory engine that evaluates it. Filters are
// combined with AND semantics and preceded by an optional free-text or
// regular-expression search over whole rows.
package filter

// Row represents a single record. Values vary by field: strings, numbers,
// string slices and ISO-8601 date strings are the common cases.
type Row map[string]any

// Operator defines the set of comparisons a FilterConfig can assign to a field.
type Operator string

// Supported operators.
const (
	OperatorEquals                Operator = "equals"
	OperatorContains              Operator = "contains"
	OperatorContainsOneOf         Operator = "contains-one-of"
	OperatorEqualsOneOf           Operator = "equals-one-of"
	OperatorBetweenInclusive      Operator = "between-inclusive"
	OperatorBetweenDatesInclusive Operator = "between-dates-inclusive"
)

// knownOperators is the closed set of operators the matcher understands.
var knownOperators = map[Operator]struct{}{
	OperatorEquals:                {},
	OperatorContains:              {},
	OperatorContainsOneOf:         {},
	OperatorEqualsOneOf:           {},
	OperatorBetweenInclusive:      {},
	OperatorBetweenDatesInclusive: {},
}

// IsKnown reports whether the operator is one of the supported operators.
func (o Operator) IsKnown() bool {
	_, ok := knownOperators[o]
	return ok
}

// Option is a selectable value offered by a filter widget.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Props carries widget configuration. The engine never reads it.
type Props struct {
	Options     []Option `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Type        string   `json:"type,omitempty"`
}

// FilterConfig declares which operator (and widget) applies to a field. It is
// the only channel through which an operator is selected for a field.
type FilterConfig struct {
	Field     string   `json:"field"`
	Label     string   `json:"label"`
	Operator  Operator `json:"operator"`
	Component string   `json:"filterComponent,omitempty"`
	Props     *Props   `json:"filterProps,omitempty"`
}

// ActiveFilter is a live user selection constraining the visible rows.
// Operator is informational; the engine resolves the operator from the
// matching FilterConfig.
type ActiveFilter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// SearchMode selects how SearchQuery.Text is interpreted.
type SearchMode string

// Supported search modes.
const (
	SearchModeText  SearchMode = "text"
	SearchModeRegex SearchMode = "regex"
)

// SearchQuery is a free-text or regex scan over whole rows. Empty text
// disables searching.
type SearchQuery struct {
	Text string     `json:"text"`
	Mode SearchMode `json:"mode"`
}

// WarningCode identifies a non-fatal condition raised while filtering.
type WarningCode string

const (
	// WarnInvalidPattern is raised when a regex search does not compile. The
	// search step is skipped.
	WarnInvalidPattern WarningCode = "invalid_pattern"
	// WarnUnconfiguredField is raised when an active filter names a field
	// with no FilterConfig. The filter matches nothing.
	WarnUnconfiguredField WarningCode = "unconfigured_field"
	// WarnUnknownOperator is raised when a FilterConfig names an operator the
	// matcher does not support. The filter matches nothing.
	WarnUnknownOperator WarningCode = "unknown_operator"
)

// Warning describes a non-fatal condition the caller may surface to the user.
type Warning struct {
	Code    WarningCode `json:"code"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message"`
}

// Result holds the visible subset and any warnings raised while producing it.
type Result struct {
	Rows     []Row     `json:"rows"`
	Warnings []Warning `json:"warnings,omitempty"`
}
