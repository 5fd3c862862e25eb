package filter

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EngineOptions tunes the filter engine.
type EngineOptions struct {
	// RegexTimeout bounds a single regex match against one row. A row whose
	// match times out is treated as not matching.
	RegexTimeout time.Duration
}

// DefaultEngineOptions returns the options used when none are supplied.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		RegexTimeout: 100 * time.Millisecond,
	}
}

// Engine applies searches and active filters to in-memory rows. It holds no
// per-call state, so one Engine can serve any number of tables concurrently.
type Engine struct {
	logger  *zap.Logger
	options EngineOptions
}

// NewEngine creates a new Engine.
func NewEngine(logger *zap.Logger, options *EngineOptions) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := DefaultEngineOptions()
	if options != nil {
		opts = *options
	}
	return &Engine{
		logger:  logger,
		options: opts,
	}
}

// FilterData runs the search and then every active filter over rows,
// returning the visible subset in input order. Warnings are discarded; use
// Engine.Filter to receive them.
func FilterData(rows []Row, filters []ActiveFilter, configs []FilterConfig, search SearchQuery) []Row {
	return NewEngine(nil, nil).Filter(rows, filters, configs, search).Rows
}

// Filter runs the search step followed by the per-field filters.
func (e *Engine) Filter(rows []Row, filters []ActiveFilter, configs []FilterConfig, search SearchQuery) Result {
	var warnings []Warning

	searched, warning := e.FilterBySearchText(rows, search)
	if warning != nil {
		warnings = append(warnings, *warning)
	}

	filtered, filterWarnings := e.FilterByDataFilters(searched, filters, configs)
	warnings = append(warnings, filterWarnings...)

	e.logger.Debug("Rows remaining after filtering",
		zap.Int("input", len(rows)),
		zap.Int("visible", len(filtered)),
		zap.Int("filters", len(filters)),
	)
	return Result{Rows: filtered, Warnings: warnings}
}

// FilterBySearchText keeps rows whose canonical text contains the search
// text (text mode, case-insensitive) or matches it as a pattern (regex mode,
// case-insensitive). A pattern that does not compile leaves rows untouched
// and yields a warning instead of an error.
func (e *Engine) FilterBySearchText(rows []Row, search SearchQuery) ([]Row, *Warning) {
	if search.Text == "" {
		return rows, nil
	}

	if search.Mode == SearchModeRegex {
		re, err := compileSearchPattern(search.Text, e.options)
		if err != nil {
			e.logger.Warn("Invalid search pattern, search skipped",
				zap.String("pattern", search.Text),
				zap.Error(err),
			)
			return rows, &Warning{
				Code:    WarnInvalidPattern,
				Message: fmt.Sprintf("invalid search pattern %q: %v", search.Text, err),
			}
		}

		filtered := make([]Row, 0, len(rows))
		for _, row := range rows {
			ok, err := re.MatchString(RowString(row))
			if err != nil {
				e.logger.Debug("Search pattern match failed", zap.Error(err))
				continue
			}
			if ok {
				filtered = append(filtered, row)
			}
		}
		return filtered, nil
	}

	needle := strings.ToLower(search.Text)
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(RowString(row)), needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// FilterByDataFilters keeps rows satisfying every active filter. Operators are
// resolved from configs by field; a filter on a field without a config, or
// with an unsupported operator, matches nothing.
func (e *Engine) FilterByDataFilters(rows []Row, filters []ActiveFilter, configs []FilterConfig) ([]Row, []Warning) {
	if rows == nil || len(filters) == 0 {
		return rows, nil
	}

	operators, warnings := e.resolveOperators(filters, configs)

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		include := true
		for _, f := range filters {
			if !Match(row, f, operators[f.Field]) {
				include = false
				break
			}
		}
		if include {
			filtered = append(filtered, row)
		}
	}
	return filtered, warnings
}

// resolveOperators builds the field -> operator map once per call.
func (e *Engine) resolveOperators(filters []ActiveFilter, configs []FilterConfig) (map[string]Operator, []Warning) {
	operators := make(map[string]Operator, len(filters))
	var warnings []Warning

	for _, f := range filters {
		if _, seen := operators[f.Field]; seen {
			continue
		}
		op, ok := operatorFor(f.Field, configs)
		operators[f.Field] = op

		switch {
		case !ok:
			e.logger.Warn("Active filter has no configuration and matches nothing", zap.String("field", f.Field))
			warnings = append(warnings, Warning{
				Code:    WarnUnconfiguredField,
				Field:   f.Field,
				Message: fmt.Sprintf("no filter configuration for field %q", f.Field),
			})
		case !op.IsKnown():
			e.logger.Warn("Filter configuration names an unknown operator",
				zap.String("field", f.Field),
				zap.String("operator", string(op)),
			)
			warnings = append(warnings, Warning{
				Code:    WarnUnknownOperator,
				Field:   f.Field,
				Message: fmt.Sprintf("unknown operator %q for field %q", op, f.Field),
			})
		}
	}
	return operators, warnings
}

// operatorFor returns the operator of the first config naming field.
func operatorFor(field string, configs []FilterConfig) (Operator, bool) {
	for _, c := range configs {
		if c.Field == field {
			return c.Operator, true
		}
	}
	return "", false
}
