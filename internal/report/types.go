package report

import "fmt"

// Flat report columns.
const (
	ColumnIncident    = "Incident"
	ColumnCreated     = "Created"
	ColumnDescription = "Description"
	ColumnAck         = "Ack"
	ColumnStatus      = "Status"
	ColumnUrgency     = "Urgency"
	ColumnHTMLURL     = "Html_url"

	ColumnCount = "Count"
)

// DefaultThreshold is the fuzzy grouping similarity threshold used when none is given.
const DefaultThreshold = 90

// FlatHeader is the header of every flat report.
var FlatHeader = []string{
	ColumnIncident,
	ColumnCreated,
	ColumnDescription,
	ColumnAck,
	ColumnStatus,
	ColumnUrgency,
	ColumnHTMLURL,
}

// Report is a table of text cells. Every row has one cell per header column.
type Report struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (r Report) Validate() error {
	for i, row := range r.Rows {
		if len(row) != len(r.Header) {
			return fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(r.Header))
		}
	}
	return nil
}

// GroupOptions controls how Group buckets values.
type GroupOptions struct {
	Fuzzy     bool
	Threshold int `validate:"gte=0,lte=100"`
}
