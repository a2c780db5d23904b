package output

import (
	"context"
	"fmt"
	"io"

	"github.com/dynoinc/incidentreport/internal/report"
)

const (
	FormatPretty     = "pretty"
	FormatCSV        = "csv"
	FormatConfluence = "confluence"
	FormatSlack      = "slack"
)

// Sink renders reports somewhere. Reports are written in the order given.
type Sink interface {
	Write(ctx context.Context, reports ...report.Report) error
}

// NewWriterSink returns the sink for a format that renders to w.
func NewWriterSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case FormatPretty:
		return NewTable(w), nil
	case FormatCSV:
		return NewCSV(w), nil
	default:
		return nil, fmt.Errorf("format %q does not write to a stream", format)
	}
}
