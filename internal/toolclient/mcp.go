package toolclient

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the client's calls as MCP tools.
func NewMCPServer(c *Client, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"pneuma-tools",
		version,
		server.WithToolCapabilities(true),
	)
	t := &tools{client: c}
	t.register(s)
	return s
}

type tools struct {
	client *Client
}

func (t *tools) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search_tables",
		mcp.WithDescription("Search for relevant tables using a natural language description of the data you need."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language description of desired data")),
		mcp.WithNumber("k", mcp.Description("Number of tables to return (1-20)")),
		mcp.WithString("session_id", mcp.Description("Session id for follow-up queries")),
	), t.searchTables)

	s.AddTool(mcp.NewTool("get_table_details",
		mcp.WithDescription("Get schema, size and sample rows for one table."),
		mcp.WithString("table_id", mcp.Required(), mcp.Description("Table identifier from a search result")),
		mcp.WithBoolean("include_sample", mcp.Description("Include sample rows")),
	), t.tableDetails)

	s.AddTool(mcp.NewTool("session_history",
		mcp.WithDescription("List the queries previously issued in a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
	), t.sessionHistory)

	s.AddTool(mcp.NewTool("list_indexes",
		mcp.WithDescription("List the searchable table indexes."),
	), t.listIndexes)

	s.AddTool(mcp.NewTool("query_suggestions",
		mcp.WithDescription("Suggest example queries for discovering datasets."),
		mcp.WithString("context", mcp.Description("Optional context for the suggestions")),
	), t.querySuggestions)
}

func (t *tools) searchTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return mcp.NewToolResultError("query cannot be empty"), nil
	}
	k := req.GetInt("k", 5)
	sid := req.GetString("session_id", "")

	raw, err := t.client.SearchTables(ctx, query, k, sid)
	if err != nil {
		return mcp.NewToolResultError(FormatError("", err)), nil
	}
	return mcp.NewToolResultText(FormatSearchResults(raw, query)), nil
}

func (t *tools) tableDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("table_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("table_id cannot be empty"), nil
	}
	raw, err := t.client.TableDetails(ctx, id, req.GetBool("include_sample", true))
	if err != nil {
		return mcp.NewToolResultError(FormatError("retrieving table details", err)), nil
	}
	return mcp.NewToolResultText(FormatTableDetails(raw)), nil
}

func (t *tools) sessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sid, err := req.RequireString("session_id")
	if err != nil || sid == "" {
		return mcp.NewToolResultError("session_id cannot be empty"), nil
	}
	raw, err := t.client.SessionHistory(ctx, sid)
	if err != nil {
		return mcp.NewToolResultError(FormatError("retrieving session history", err)), nil
	}
	return mcp.NewToolResultText(FormatHistory(raw)), nil
}

func (t *tools) listIndexes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = req
	raw, err := t.client.Indexes(ctx)
	if err != nil {
		return mcp.NewToolResultError(FormatError("listing indexes", err)), nil
	}
	return mcp.NewToolResultText(FormatIndexes(raw)), nil
}

func (t *tools) querySuggestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = ctx
	return mcp.NewToolResultText(QuerySuggestions(req.GetString("context", ""))), nil
}
