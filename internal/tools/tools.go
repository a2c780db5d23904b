package tools

import (
	"context"
	"log/slog"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dynoinc/incidentreport/internal/enrich"
	"github.com/dynoinc/incidentreport/internal/tools/incident_report"
)

// Server exposes the report tools over MCP.
func Server(source enrich.Source, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("pd.tools", versioninfo.Short(), server.WithToolCapabilities(true))
	srv.AddTool(incident_report.Tool(source, logger, nil))
	return srv
}

// Client returns an initialized in-process client for Server. The CLI serves
// over stdio instead; Client is for embedding the tools in another Go program
// and for tests.
func Client(ctx context.Context, source enrich.Source, logger *slog.Logger) (*client.Client, error) {
	c, err := client.NewInProcessClient(Server(source, logger))
	if err != nil {
		return nil, err
	}

	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	_, err = c.Initialize(ctx, mcp.InitializeRequest{})
	if err != nil {
		return nil, err
	}

	return c, nil
}
