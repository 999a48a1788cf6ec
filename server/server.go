// server/server.go
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with all Odoo tools registered.
func NewServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "odoo-mcp-server",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_models",
		Description: "List the Odoo models available through this server, together with the capability tier (enhanced or basic) the server detected.",
	}, svc.HandleListModels)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_permissions",
		Description: "Get the per-operation permissions (read, write, create, unlink) for one Odoo model, or for every enabled model when no model is given.",
	}, svc.HandleGetPermissions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_records",
		Description: "Search records of an Odoo model with an optional domain filter and field selection. The record limit is capped by server configuration.",
	}, svc.HandleSearchRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_records",
		Description: "Read specific records of an Odoo model by ID with optional field selection.",
	}, svc.HandleReadRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record of an Odoo model with the given field values. Requires create permission on the model.",
	}, svc.HandleCreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Update records of an Odoo model by ID with the given field values. Requires write permission on the model.",
	}, svc.HandleUpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete records of an Odoo model by ID. Requires unlink permission on the model.",
	}, svc.HandleDeleteRecord)

	return server
}

// RunStdio serves the MCP tools over stdin/stdout until the context is
// cancelled or the client disconnects.
func RunStdio(ctx context.Context, svc *Service) error {
	return NewServer(svc).Run(ctx, &mcp.StdioTransport{})
}
