package incident

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) Record {
	t.Helper()

	var r Record
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestAccessors(t *testing.T) {
	fields := decode(t, `{
		"id": "Q1",
		"incident_number": 1234,
		"created_at": "2024-05-01T10:00:00Z",
		"description": "Disk full on db-1   \n",
		"status": "resolved",
		"urgency": "high",
		"seconds_to_resolve": 360,
		"html_url": "https://example.pagerduty.com/incidents/Q1",
		"escalation_policy": {"id": "EP1", "summary": "Primary"}
	}`)

	i := New(fields, nil, nil)

	assert.Equal(t, "Q1", i.ID())
	assert.Equal(t, "1234", i.Number())
	assert.Equal(t, "2024-05-01T10:00:00Z", i.CreatedAt())
	assert.Equal(t, "Disk full on db-1", i.Description())
	assert.Equal(t, "resolved", i.Status())
	assert.Equal(t, "high", i.Urgency())
	assert.Equal(t, "360", i.ResolutionTime())
	assert.Equal(t, "https://example.pagerduty.com/incidents/Q1", i.HTMLURL())
	assert.Equal(t, "Primary", i.EscalationPolicy())
}

func TestMissingFields(t *testing.T) {
	i := New(decode(t, `{"status": null}`), nil, nil)

	for name, got := range map[string]string{
		"id":                i.ID(),
		"number":            i.Number(),
		"created_at":        i.CreatedAt(),
		"description":       i.Description(),
		"short_description": i.ShortDescription(),
		"status":            i.Status(),
		"urgency":           i.Urgency(),
		"resolution_time":   i.ResolutionTime(),
		"html_url":          i.HTMLURL(),
		"escalation_policy": i.EscalationPolicy(),
		"acknowledged_by":   i.AcknowledgedBy(),
	} {
		assert.Equal(t, Missing, got, name)
	}
}

func TestAcknowledgedBy(t *testing.T) {
	tests := []struct {
		name    string
		entries string
		want    string
	}{
		{
			name:    "no entries",
			entries: `[]`,
			want:    "-",
		},
		{
			name:    "no acknowledgement",
			entries: `[{"type": "trigger_log_entry", "agent": {"summary": "Datadog"}}, {"type": "resolve_log_entry"}]`,
			want:    "-",
		},
		{
			name: "first acknowledgement wins",
			entries: `[
				{"type": "trigger_log_entry", "agent": {"summary": "Datadog"}},
				{"type": "acknowledge_log_entry", "agent": {"summary": "alice"}},
				{"type": "acknowledge_log_entry", "agent": {"summary": "bob"}}
			]`,
			want: "alice",
		},
		{
			name:    "short type name",
			entries: `[{"type": "acknowledge", "agent": {"summary": "carol"}}]`,
			want:    "carol",
		},
		{
			name:    "acknowledgement without agent",
			entries: `[{"type": "acknowledge_log_entry"}, {"type": "acknowledge_log_entry", "agent": {"summary": "bob"}}]`,
			want:    "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entries []Record
			require.NoError(t, json.Unmarshal([]byte(tt.entries), &entries))

			i := New(Record{}, entries, nil)
			assert.Equal(t, tt.want, i.AcknowledgedBy())
		})
	}
}

func TestShortDescription(t *testing.T) {
	exact := strings.Repeat("a", ShortDescriptionLength)
	long := strings.Repeat("b", ShortDescriptionLength+1)
	unicodeLong := strings.Repeat("é", ShortDescriptionLength+5)

	tests := []struct {
		description string
		want        string
	}{
		{description: "short", want: "short"},
		{description: "", want: ""},
		{description: exact, want: exact},
		{description: long, want: strings.Repeat("b", ShortDescriptionLength) + "..."},
		{description: unicodeLong, want: strings.Repeat("é", ShortDescriptionLength) + "..."},
		{description: exact + "   ", want: exact},
	}

	for _, tt := range tests {
		i := New(Record{"description": tt.description}, nil, nil)
		assert.Equal(t, tt.want, i.ShortDescription())
	}
}

func TestNewCopiesInputs(t *testing.T) {
	entries := []Record{{"type": "acknowledge_log_entry", "agent": map[string]any{"summary": "alice"}}}
	notes := []Record{{"content": "restarted"}}

	fields := Record{"id": "Q1", "description": "Disk full"}

	i := New(fields, entries, notes)
	entries[0] = Record{"type": "trigger_log_entry"}
	notes = append(notes[:0], Record{"content": "changed"})
	fields["description"] = "changed"
	delete(fields, "id")

	assert.Equal(t, "Disk full", i.Description())
	assert.Equal(t, "Q1", i.ID())
	assert.Equal(t, "alice", i.AcknowledgedBy())
	assert.Equal(t, "restarted", i.Notes()[0].String("content"))
	assert.Len(t, i.LogEntries(), 1)
}
