package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/strudel-science/runmonitor/core/filter"
)

// readRows converts every record of rows into a filter.Row. NULL columns are
// left out of the row, text comes back as string and list fields are decoded
// from their JSON form.
func readRows(logger *zap.Logger, options *Options, rows *sql.Rows) ([]filter.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	fields := make([]string, len(columns))
	for i, col := range columns {
		fields[i] = col
		if options.Mapping != nil {
			if f, ok := options.Mapping[col]; ok {
				fields[i] = f
			}
		}
	}
	lists := make(map[string]bool, len(options.ListFields))
	for _, f := range options.ListFields {
		lists[f] = true
	}

	var results []filter.Row
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(filter.Row, len(columns))
		for i, field := range fields {
			val := values[i]
			if val == nil {
				continue
			}
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			if lists[field] {
				val = decodeList(logger, field, val)
			}
			row[field] = val
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

// decodeList turns a JSON array into []any. Anything else is kept as read.
func decodeList(logger *zap.Logger, field string, val any) any {
	s, ok := val.(string)
	if !ok {
		return val
	}
	var decoded []any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		logger.Warn("List column is not a JSON array, using raw value", zap.String("field", field), zap.Error(err))
		return val
	}
	return decoded
}
