// Package export turns a visible row set into a downloadable CSV file: the
// serializer, the filename derived from the active filters, and the savers
// that hand the bytes to whatever delivers them.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/strudel-science/runmonitor/core/filter"
)

// ContentType is the media type of exported files.
const ContentType = "text/csv;charset=utf-8;"

// ConvertToCSV serializes rows using headers for both column order and the
// set of exported fields. The first line holds the raw header names. Empty
// input produces an empty string, without a header line.
func ConvertToCSV(rows []filter.Row, headers []string) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		b.WriteByte('\n')
		for i, header := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeField(row[header]))
		}
	}
	return b.String()
}

// escapeField quotes a value only when it contains a comma, a double quote or
// a newline, doubling embedded quotes.
func escapeField(v any) string {
	if v == nil {
		return ""
	}
	s := Stringify(v)
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Stringify renders a field value as text. Lists join their elements with
// commas, numbers use their shortest form and times use RFC 3339.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case map[string]any, filter.Row:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}

	if list, ok := filter.ToList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
