package incident_report

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dynoinc/incidentreport/internal/config"
	"github.com/dynoinc/incidentreport/internal/enrich"
	"github.com/dynoinc/incidentreport/internal/incident"
	"github.com/dynoinc/incidentreport/internal/pipeline"
	"github.com/dynoinc/incidentreport/internal/report"
)

type Result struct {
	Since   string          `json:"since"`
	Until   string          `json:"until"`
	Reports []report.Report `json:"reports"`
}

func Tool(source enrich.Source, logger *slog.Logger, now func() time.Time) (mcp.Tool, server.ToolHandlerFunc) {
	if now == nil {
		now = time.Now
	}

	tool := mcp.Tool{
		Name: "incident_report",
		Description: `Generate a PagerDuty incident report for a set of teams and services.

Returns JSON with the date window and a list of reports. Each report has a "header" and "rows" of text cells.
Without "group" or "report" the result is one listing of incidents. With "group" it is one table of counts
per distinct value of that column. With "report" it is three tables: the listing, counts by description, counts by ack.

When presenting the result, format each report as a code block table and mention the date window.`,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"teams": map[string]string{
					"type":        "string",
					"description": "Comma separated PagerDuty team ids",
				},
				"services": map[string]string{
					"type":        "string",
					"description": "Comma separated PagerDuty service ids",
				},
				"since": map[string]string{
					"type":        "string",
					"description": "Start date as YYYY-MM-DD (default: today)",
				},
				"until": map[string]string{
					"type":        "string",
					"description": "End date as YYYY-MM-DD, exclusive (default: the day after since)",
				},
				"group": map[string]string{
					"type":        "string",
					"description": "Column to count incidents by: Incident, Created, Description, Ack, Status, Urgency or Html_url",
				},
				"fuzzy": map[string]any{
					"type":        "boolean",
					"description": "Group similar values together instead of exact matches",
					"default":     false,
				},
				"fuzz_score": map[string]any{
					"type":        "integer",
					"description": "Similarity from 0 to 100 needed to join a fuzzy group (default: 90)",
					"default":     report.DefaultThreshold,
				},
				"full": map[string]any{
					"type":        "boolean",
					"description": "Do not truncate descriptions",
					"default":     false,
				},
				"report": map[string]any{
					"type":        "boolean",
					"description": "Produce the listing plus counts by description and by ack",
					"default":     false,
				},
			},
			Required: []string{"teams", "services"},
		},
	}

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		teams, err := request.RequireString("teams")
		if err != nil {
			return mcp.NewToolResultErrorf("teams parameter is required and must be a string: %v", err), nil
		}
		services, err := request.RequireString("services")
		if err != nil {
			return mcp.NewToolResultErrorf("services parameter is required and must be a string: %v", err), nil
		}

		var dates []string
		if since := request.GetString("since", ""); since != "" {
			dates = append(dates, since)
			if until := request.GetString("until", ""); until != "" {
				dates = append(dates, until)
			}
		} else if request.GetString("until", "") != "" {
			return mcp.NewToolResultError("until requires since"), nil
		}

		window, err := incident.ParseWindow(dates, now())
		if err != nil {
			return mcp.NewToolResultErrorFromErr("invalid date window", err), nil
		}

		opts := pipeline.Options{
			TeamIDs:    config.SplitList(teams),
			ServiceIDs: config.SplitList(services),
			Window:     window,
			Full:       request.GetBool("full", false),
			Group:      request.GetString("group", ""),
			FullReport: request.GetBool("report", false),
			Grouping: report.GroupOptions{
				Fuzzy:     request.GetBool("fuzzy", false),
				Threshold: request.GetInt("fuzz_score", report.DefaultThreshold),
			},
		}

		reports, err := pipeline.Run(ctx, source, opts, logger)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to generate incident report", err), nil
		}
		if reports == nil {
			reports = []report.Report{}
		}

		jsonData, err := json.Marshal(Result{
			Since:   window.Since(),
			Until:   window.Until(),
			Reports: reports,
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to marshal report", err), nil
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}

	return tool, handler
}
