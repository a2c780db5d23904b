package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/otel/semconv"
	"github.com/dynoinc/incidentreport/internal/pagerduty"
)

// Source is the subset of the PagerDuty client the collector needs.
type Source interface {
	FetchIncidents(ctx context.Context, q pagerduty.Query) ([]incident.Record, error)
	FetchLogEntries(ctx context.Context, incidentID string) ([]incident.Record, error)
	FetchNotes(ctx context.Context, incidentID string) ([]incident.Record, error)
}

type Collector struct {
	source     Source
	logger     *slog.Logger
	tracer     trace.Tracer
	forceTrace bool
}

type Option func(*Collector)

// WithForceTrace marks the collection span so it is sampled regardless of the sample rate.
func WithForceTrace(force bool) Option {
	return func(c *Collector) {
		c.forceTrace = force
	}
}

func New(source Source, logger *slog.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Collector{
		source: source,
		logger: logger,
		tracer: otel.Tracer("github.com/dynoinc/incidentreport/internal/enrich"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches the incidents matching q and enriches each one with its log
// entries and notes, one incident at a time. Any failure aborts the whole run.
func (c *Collector) Collect(ctx context.Context, q pagerduty.Query) (_ []incident.Incident, err error) {
	ctx, span := c.tracer.Start(ctx, "collect incidents", trace.WithAttributes(
		semconv.WindowKey.String(q.Window.String()),
		semconv.ForceTraceKey.Bool(c.forceTrace),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	records, err := c.source.FetchIncidents(ctx, q)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "incidents found", "count", len(records))
	span.SetAttributes(semconv.IncidentsKey.Int(len(records)))

	incidents := make([]incident.Incident, 0, len(records))
	for _, record := range records {
		i, err := c.enrich(ctx, record)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}

	return incidents, nil
}

func (c *Collector) enrich(ctx context.Context, record incident.Record) (_ incident.Incident, err error) {
	id := record.String("id")
	number := record.String("incident_number")

	ctx, span := c.tracer.Start(ctx, "enrich incident", trace.WithAttributes(
		semconv.IncidentIDKey.String(id),
		semconv.IncidentNumberKey.String(number),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if id == incident.Missing {
		return incident.Incident{}, errors.New("incident " + number + " has no id")
	}

	logEntries, err := c.source.FetchLogEntries(ctx, id)
	if err != nil {
		return incident.Incident{}, fmt.Errorf("enriching incident %s: %w", number, err)
	}

	notes, err := c.source.FetchNotes(ctx, id)
	if err != nil {
		return incident.Incident{}, fmt.Errorf("enriching incident %s: %w", number, err)
	}

	span.SetAttributes(
		semconv.LogEntryCountKey.Int(len(logEntries)),
		semconv.NoteCountKey.Int(len(notes)),
	)
	c.logger.InfoContext(ctx, "incident enriched", "incident", number, "log_entries", len(logEntries), "notes", len(notes))

	return incident.New(record, logEntries, notes), nil
}
