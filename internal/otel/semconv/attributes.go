// Attribute keys shared by every span the report pipeline emits.
// Prefer a key from https://opentelemetry.io/docs/specs/semconv/ when one fits.
package semconv

import "go.opentelemetry.io/otel/attribute"

const (
	// PagerDuty-specific attributes
	IncidentIDKey     = attribute.Key("pagerduty.incident.id")
	IncidentNumberKey = attribute.Key("pagerduty.incident.number")
	LogEntryCountKey  = attribute.Key("pagerduty.incident.log_entries")
	NoteCountKey      = attribute.Key("pagerduty.incident.notes")
	EndpointKey       = attribute.Key("pagerduty.endpoint")
	PageCountKey      = attribute.Key("pagerduty.pages")

	// Application-specific attributes
	ForceTraceKey = attribute.Key("force_trace")
	WindowKey     = attribute.Key("report.window")
	IncidentsKey  = attribute.Key("report.incidents")
)
