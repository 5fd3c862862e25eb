// Package activity wires the filter engine, the filter store and the CSV
// export into the monitor-activities task flow: workflow runs submitted to
// compute sites, filtered by site, status and result and exported to CSV.
package activity

import (
	"github.com/strudel-science/runmonitor/core/export"
	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/core/source"
)

// Row fields of a run.
const (
	FieldID             = "id"
	FieldExperimentName = "experiment_name"
	FieldStartTime      = "start_time"
	FieldEndTime        = "end_time"
	FieldStatus         = export.FieldStatus
	FieldCromwellResult = export.FieldCromwellResult
	FieldTag            = "tag"
	FieldUser           = "user"
	FieldSite           = export.FieldSite
	FieldDays           = export.FieldDays
)

// Columns maps the headers of a runs report to row fields.
var Columns = source.Mapping{
	"Run#":            FieldID,
	"Name":            FieldExperimentName,
	"Submitted":       FieldStartTime,
	"Updated":         FieldEndTime,
	"Status":          FieldStatus,
	"Cromwell Result": FieldCromwellResult,
	"Tag":             FieldTag,
	"User":            FieldUser,
	"Site":            FieldSite,
}

// ExportHeaders are the exported columns, in order.
var ExportHeaders = []string{
	FieldID,
	FieldExperimentName,
	FieldCromwellResult,
	FieldStatus,
	FieldUser,
	FieldSite,
	FieldStartTime,
	FieldEndTime,
}

func options(pairs ...string) []filter.Option {
	out := make([]filter.Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, filter.Option{Label: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// FilterConfigs returns the filters offered on the runs table. Each call
// returns a fresh slice.
func FilterConfigs() []filter.FilterConfig {
	return []filter.FilterConfig{
		{
			Field:     FieldSite,
			Label:     "Site",
			Operator:  filter.OperatorContainsOneOf,
			Component: "MultiSelectDropdown",
			Props: &filter.Props{
				Options: options(
					"Crux", "crux",
					"Defiant", "defiant",
					"Dori", "dori",
					"JGI", "jgi",
					"KBase", "kbase",
					"NMDC", "nmdc",
					"NMDC Tahoma", "nmdc_tahoma",
					"Perlmutter", "perlmutter",
					"Tahoma", "tahoma",
					"Any", "any",
				),
				Placeholder: "Select sites...",
			},
		},
		{
			Field:     FieldDays,
			Label:     "Days",
			Operator:  filter.OperatorEquals,
			Component: "TextField",
			Props: &filter.Props{
				Type:        "number",
				Placeholder: "Enter number of days...",
			},
		},
		{
			Field:     FieldStatus,
			Label:     "Status",
			Operator:  filter.OperatorEquals,
			Component: "SingleSelectDropdown",
			Props: &filter.Props{
				Options:     options("Active", filter.StatusActive, "Done", filter.StatusDone, "Any", "any"),
				Placeholder: "Select status...",
			},
		},
		{
			Field:     FieldCromwellResult,
			Label:     "Result",
			Operator:  filter.OperatorContainsOneOf,
			Component: "MultiSelectDropdown",
			Props: &filter.Props{
				Options:     options("Succeeded", "succeeded", "Failed", "failed", "Cancelled", "cancelled", "Any", "any"),
				Placeholder: "Select results...",
			},
		},
	}
}

// configFor returns the config of field.
func configFor(configs []filter.FilterConfig, field string) (filter.FilterConfig, bool) {
	for _, c := range configs {
		if c.Field == field {
			return c, true
		}
	}
	return filter.FilterConfig{}, false
}
