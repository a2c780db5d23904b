package output

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/dynoinc/incidentreport/internal/report"
)

// Table renders each report as a bordered text table.
type Table struct {
	w io.Writer
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) Write(_ context.Context, reports ...report.Report) error {
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(t.w); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(t.w, renderTable(r)); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(r report.Report) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)

	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: true, Right: true, Bottom: true})
	table.SetCenterSeparator("+")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetHeader(r.Header)
	table.AppendBulk(r.Rows)

	table.Render()
	return buf.String()
}
