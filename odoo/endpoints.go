// odoo/endpoints.go
package odoo

// Odoo exposes its XML-RPC services under several path layouts
// depending on the installed addons and server generation. Detection
// walks these sets in order of preference and keeps the first one
// whose common endpoint answers a version call.
type endpointSet struct {
	name   string
	db     string
	common string
	object string
}

var endpointSets = []endpointSet{
	{
		// MCP addon endpoints (preferred: they also serve the
		// permission records of the enhanced tier)
		name:   "MCP",
		db:     "/mcp/xmlrpc/db",
		common: "/mcp/xmlrpc/common",
		object: "/mcp/xmlrpc/object",
	},
	{
		name:   "Standard",
		db:     "/xmlrpc/2/db",
		common: "/xmlrpc/2/common",
		object: "/xmlrpc/2/object",
	},
	{
		name:   "Alternative",
		db:     "/xmlrpc/db",
		common: "/xmlrpc/common",
		object: "/xmlrpc/object",
	},
	{
		// Older Odoo versions
		name:   "Legacy",
		db:     "/xmlrpc/1/db",
		common: "/xmlrpc/1/common",
		object: "/xmlrpc/1/object",
	},
}

// apiKeyValidatePath is served by the MCP addon over plain HTTP/JSON.
const apiKeyValidatePath = "/mcp/auth/validate"
