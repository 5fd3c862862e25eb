package activity

import (
	"github.com/strudel-science/runmonitor/core/export"
	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/utils"
)

// Run is one workflow run as listed in a runs report. Dates are kept as the
// report writes them.
type Run struct {
	ID             string `json:"id"`
	ExperimentName string `json:"experiment_name"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	Status         string `json:"status,omitempty"`
	CromwellResult string `json:"cromwell_result,omitempty"`
	Tag            string `json:"tag,omitempty"`
	User           string `json:"user,omitempty"`
	Site           string `json:"site,omitempty"`
}

// Row converts the run into the row shape the filter engine reads.
func (r Run) Row() (filter.Row, error) {
	return utils.StructToRow(r)
}

// RunsToRows converts runs into rows.
func RunsToRows(runs []Run) ([]filter.Row, error) {
	return utils.StructsToRows(runs)
}

var runFields = []string{
	FieldID,
	FieldExperimentName,
	FieldStartTime,
	FieldEndTime,
	FieldStatus,
	FieldCromwellResult,
	FieldTag,
	FieldUser,
	FieldSite,
}

// RunFromRow converts a row back into a Run. Fields that are not part of a
// run are ignored. Values are rendered as export text, so numeric ids and
// list-valued sites from a database decode like their CSV counterparts.
func RunFromRow(row filter.Row) (Run, error) {
	text := make(filter.Row, len(runFields))
	for _, field := range runFields {
		if v, ok := row[field]; ok && v != nil {
			text[field] = export.Stringify(v)
		}
	}
	return utils.RowToStruct[Run](text)
}
