package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/dynoinc/incidentreport/internal/enrich"
	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/pagerduty"
	"github.com/dynoinc/incidentreport/internal/report"
)

// Options describe one report run.
type Options struct {
	TeamIDs    []string        `validate:"required,min=1,dive,required"`
	ServiceIDs []string        `validate:"required,min=1,dive,required"`
	Window     incident.Window `validate:"-"`

	// Full keeps descriptions untruncated.
	Full bool
	// Group, when set, reports counts of this column instead of a listing.
	Group string
	// FullReport emits the listing plus counts by description and by ack,
	// ignoring Group.
	FullReport bool

	Grouping report.GroupOptions
	// Debug forces the run to be traced.
	Debug bool
}

var validate = validator.New()

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Run collects the incidents selected by opts and builds the requested reports.
// It returns no reports when no incidents match.
func Run(ctx context.Context, source enrich.Source, opts Options, logger *slog.Logger) ([]report.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := pagerduty.Query{
		TeamIDs:    opts.TeamIDs,
		ServiceIDs: opts.ServiceIDs,
		Window:     opts.Window,
	}

	logger.InfoContext(ctx, "searching for incidents", "window", q.Window.String(), "teams", q.TeamIDs, "services", q.ServiceIDs)

	incidents, err := enrich.New(source, logger, enrich.WithForceTrace(opts.Debug)).Collect(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(incidents) == 0 {
		logger.InfoContext(ctx, "no incidents found")
		return nil, nil
	}

	switch {
	case opts.FullReport:
		return report.Full(incidents, opts.Full, opts.Grouping)
	case opts.Group != "":
		grouped, err := report.Group(report.Flat(incidents, opts.Full), opts.Group, opts.Grouping)
		if err != nil {
			return nil, err
		}
		return []report.Report{grouped}, nil
	default:
		return []report.Report{report.Flat(incidents, opts.Full)}, nil
	}
}
