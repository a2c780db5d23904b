package output

import (
	"context"
	"io"
	"strings"

	"github.com/dynoinc/incidentreport/internal/report"
)

var quoteEscaper = strings.NewReplacer(`"`, `\"`)

// CSV renders reports as lines of double-quoted, comma separated cells.
// Quotes inside a cell are backslash-escaped.
type CSV struct {
	w io.Writer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

func (c *CSV) Write(_ context.Context, reports ...report.Report) error {
	var sb strings.Builder
	for _, r := range reports {
		writeCSVLine(&sb, r.Header)
		for _, row := range r.Rows {
			writeCSVLine(&sb, row)
		}
	}

	_, err := io.WriteString(c.w, sb.String())
	return err
}

func writeCSVLine(sb *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(quoteEscaper.Replace(cell))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}
