package incident

import (
	"maps"
	"slices"
	"strings"
	"unicode"
)

// ShortDescriptionLength is the number of characters kept by ShortDescription.
const ShortDescriptionLength = 58

// Incident is a single PagerDuty incident together with its log entries and notes.
type Incident struct {
	fields     Record
	logEntries []Record
	notes      []Record
}

func New(fields Record, logEntries, notes []Record) Incident {
	return Incident{
		fields:     maps.Clone(fields),
		logEntries: slices.Clone(logEntries),
		notes:      slices.Clone(notes),
	}
}

func (i Incident) ID() string {
	return i.fields.String("id")
}

func (i Incident) Number() string {
	return i.fields.String("incident_number")
}

func (i Incident) CreatedAt() string {
	return i.fields.String("created_at")
}

func (i Incident) Description() string {
	return strings.TrimRightFunc(i.fields.String("description"), unicode.IsSpace)
}

// ShortDescription truncates the description to ShortDescriptionLength
// characters, appending "..." when anything was cut.
func (i Incident) ShortDescription() string {
	d := []rune(i.Description())
	if len(d) <= ShortDescriptionLength {
		return string(d)
	}
	return string(d[:ShortDescriptionLength]) + "..."
}

func (i Incident) Status() string {
	return i.fields.String("status")
}

func (i Incident) Urgency() string {
	return i.fields.String("urgency")
}

func (i Incident) ResolutionTime() string {
	return i.fields.String("seconds_to_resolve")
}

func (i Incident) HTMLURL() string {
	return i.fields.String("html_url")
}

func (i Incident) EscalationPolicy() string {
	policy := i.fields.Object("escalation_policy")
	if policy == nil {
		return Missing
	}
	return policy.String("summary")
}

// AcknowledgedBy returns the agent on the first acknowledge log entry.
func (i Incident) AcknowledgedBy() string {
	for _, entry := range i.logEntries {
		if !isAcknowledgement(entry.String("type")) {
			continue
		}

		agent := entry.Object("agent")
		if agent == nil {
			return Missing
		}
		return agent.String("summary")
	}

	return Missing
}

func (i Incident) LogEntries() []Record {
	return slices.Clone(i.logEntries)
}

func (i Incident) Notes() []Record {
	return slices.Clone(i.notes)
}

func isAcknowledgement(entryType string) bool {
	return strings.TrimSuffix(entryType, "_log_entry") == "acknowledge"
}
