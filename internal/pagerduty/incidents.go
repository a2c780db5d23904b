package pagerduty

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dynoinc/incidentreport/internal/incident"
)

// Query selects the incidents to report on.
type Query struct {
	TeamIDs    []string
	ServiceIDs []string
	Window     incident.Window
}

// FetchIncidents returns every incident matching q, sorted by incident number.
func (c *Client) FetchIncidents(ctx context.Context, q Query) ([]incident.Record, error) {
	params := url.Values{
		"team_ids[]":    q.TeamIDs,
		"service_ids[]": q.ServiceIDs,
		"sort_by":       {"incident_number"},
		"since":         {q.Window.Since()},
		"until":         {q.Window.Until()},
	}

	incidents, err := fetchAll(ctx, c, "incidents", "incidents", "incidents", params, pagerFor(c.cfg.IncidentPaging, c.cfg.PageLimit))
	if err != nil {
		return nil, fmt.Errorf("fetching incidents: %w", err)
	}
	return incidents, nil
}

// FetchLogEntries returns the complete log of one incident.
func (c *Client) FetchLogEntries(ctx context.Context, incidentID string) ([]incident.Record, error) {
	params := url.Values{
		"is_overview": {"false"},
	}

	path := "incidents/" + url.PathEscape(incidentID) + "/log_entries"
	entries, err := fetchAll(ctx, c, "log_entries", path, "log_entries", params, OffsetPager{Limit: c.cfg.PageLimit})
	if err != nil {
		return nil, fmt.Errorf("fetching log entries for incident %s: %w", incidentID, err)
	}
	return entries, nil
}

// FetchNotes returns the notes of one incident. The endpoint is not paginated.
func (c *Client) FetchNotes(ctx context.Context, incidentID string) ([]incident.Record, error) {
	path := "incidents/" + url.PathEscape(incidentID) + "/notes"
	notes, err := fetchAll(ctx, c, "notes", path, "notes", url.Values{}, SinglePage{})
	if err != nil {
		return nil, fmt.Errorf("fetching notes for incident %s: %w", incidentID, err)
	}
	return notes, nil
}
