package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/pagerduty"
)

type staticSource []incident.Record

func (s staticSource) FetchIncidents(context.Context, pagerduty.Query) ([]incident.Record, error) {
	return s, nil
}

func (staticSource) FetchLogEntries(context.Context, string) ([]incident.Record, error) {
	return nil, nil
}

func (staticSource) FetchNotes(context.Context, string) ([]incident.Record, error) {
	return nil, nil
}

func TestClient_ListTools(t *testing.T) {
	client, err := Client(t.Context(), staticSource{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NotNil(t, client)

	toolsResult, err := client.ListTools(t.Context(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, toolsResult.Tools, 1)

	tool := toolsResult.Tools[0]
	require.Equal(t, "incident_report", tool.Name)
	require.Equal(t, "Generate a PagerDuty incident report for a set of teams and services.", strings.Split(tool.Description, "\n")[0])
	require.Equal(t, "object", tool.InputSchema.Type)
	require.Contains(t, tool.InputSchema.Properties, "group")
	require.ElementsMatch(t, []string{"teams", "services"}, tool.InputSchema.Required)
}

func TestClient_CallTool(t *testing.T) {
	source := staticSource{
		{"id": "Q1", "incident_number": float64(7), "description": "Disk full", "status": "resolved"},
	}

	client, err := Client(t.Context(), source, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	result, err := client.CallTool(t.Context(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "incident_report",
			Arguments: map[string]any{
				"teams":    "T1",
				"services": "S1",
				"since":    "2024-05-01",
				"group":    "status",
			},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var got struct {
		Since   string `json:"since"`
		Reports []struct {
			Header []string   `json:"header"`
			Rows   [][]string `json:"rows"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &got))
	require.Equal(t, "2024-05-01", got.Since)
	require.Len(t, got.Reports, 1)
	require.Equal(t, []string{"Status", "Count"}, got.Reports[0].Header)
	require.Equal(t, [][]string{{"resolved", "1"}}, got.Reports[0].Rows)
}
