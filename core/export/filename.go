package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/strudel-science/runmonitor/core/filter"
)

// Fields that contribute to export filenames.
const (
	FieldSite           = "site"
	FieldStatus         = "status"
	FieldCromwellResult = "cromwell_result"
	FieldDays           = "days"
)

// Generator builds export filenames. Now defaults to time.Now; both the date
// and the time of day are taken from the value it returns.
type Generator struct {
	Now func() time.Time
}

// GenerateExportFilename derives a filename from the active filters and the
// current local time.
func GenerateExportFilename(filters []filter.ActiveFilter) string {
	return Generator{}.Filename(filters)
}

// Filename returns runs-{site}-{status}-{result}-{days}-{date}_{time}.csv.
func (g Generator) Filename(filters []filter.ActiveFilter) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ts := now()
	date := ts.Format("2006-01-02")
	clock := ts.Format("15-04-05")

	site := "all"
	if sites := listValue(filters, FieldSite); len(sites) == 1 {
		site = Capitalize(sites[0])
	} else if len(sites) > 1 {
		site = "sites" + capitalizeAll(sites)
	}

	status := scalarValue(filters, FieldStatus)
	if status == "" {
		status = "all"
	}

	result := "any"
	if results := listValue(filters, FieldCromwellResult); len(results) > 0 {
		result = capitalizeAll(results)
	}

	days := scalarValue(filters, FieldDays)
	if days == "" {
		days = "7"
	}

	return fmt.Sprintf("runs-%s-%s-%s-%s-%s_%s.csv", site, status, result, days, date, clock)
}

// Capitalize upper-cases the first character and leaves the rest unchanged.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func capitalizeAll(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(Capitalize(v))
	}
	return b.String()
}

// find returns the value of the first filter on field.
func find(filters []filter.ActiveFilter, field string) filter.Value {
	for _, f := range filters {
		if f.Field == field {
			return f.Value
		}
	}
	return nil
}

// listValue returns the elements of a list-valued filter; any other shape
// counts as absent.
func listValue(filters []filter.ActiveFilter, field string) []string {
	list, ok := find(filters, field).(filter.List)
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = Stringify(v)
	}
	return out
}

// scalarValue returns a filter value as text, or "" when absent.
func scalarValue(filters []filter.ActiveFilter, field string) string {
	switch v := find(filters, field).(type) {
	case filter.Scalar:
		return Stringify(v.V)
	case filter.List:
		return Stringify([]any(v))
	default:
		return ""
	}
}
