// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the report catalog and navigation menu via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/models"
	"github.com/starford/reportdesk/internal/reportservice"
	"github.com/starford/reportdesk/internal/table"
)

// MenuURI is the resource URI of the navigation menu.
const MenuURI = "reportdesk://menu"

// Server wraps the MCP server with reportdesk tools.
type Server struct {
	mcp *server.MCPServer
	svc *reportservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *reportservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"reportdesk",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List reports matching a free-text query, an inclusive date range and "+
			"category/topic filters. All filters combine with AND. Results are sorted and paged."),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title, file name and tags")),
		mcp.WithString("from", mcp.Description("Range start, YYYY-MM-DD (needs 'to')")),
		mcp.WithString("to", mcp.Description("Range end, YYYY-MM-DD (needs 'from')")),
		mcp.WithString("categories", mcp.Description("Comma separated accepted categories")),
		mcp.WithString("topics", mcp.Description("Comma separated accepted topics")),
		mcp.WithString("sort", mcp.Description("Sort column"), mcp.Enum("title", "date")),
		mcp.WithString("order", mcp.Description("Sort direction"), mcp.Enum("ascend", "descend")),
		mcp.WithNumber("page", mcp.Description("1-based page")),
		mcp.WithNumber("page_size", mcp.Description("Rows per page")),
	), s.listReports)

	s.mcp.AddTool(mcp.NewTool("report_filter_options",
		mcp.WithDescription("Distinct category and topic values across the whole catalog."),
	), s.filterOptions)

	s.mcp.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Get one report by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Report id")),
	), s.getReport)

	s.mcp.AddTool(mcp.NewTool("resolve_menu",
		mcp.WithDescription("Resolve a navigation menu key to its route. Groups and unknown keys have no route."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Menu key, e.g. 3")),
	), s.resolveMenu)

	s.mcp.AddResource(
		mcp.NewResource(MenuURI, "Navigation Menu",
			mcp.WithResourceDescription("Console navigation tree with default selected and open keys."),
			mcp.WithMIMEType("application/json"),
		),
		s.readMenuResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listReports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := models.ParseDate(req.GetString("from", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("from: %v", err)), nil
	}
	to, err := models.ParseDate(req.GetString("to", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("to: %v", err)), nil
	}

	st := table.State{}.
		WithQuery(req.GetString("query", "")).
		WithDateRange(table.DateRange{Start: from, End: to}).
		WithColumnFilters(map[table.Column][]string{
			table.ColumnCategories: splitList(req.GetString("categories", "")),
			table.ColumnTopics:     splitList(req.GetString("topics", "")),
		})

	if col := table.Column(req.GetString("sort", "")); col != "" {
		if !col.Sortable() {
			return mcp.NewToolResultError(fmt.Sprintf("sort: column %q is not sortable", col)), nil
		}
		dir := table.Direction(req.GetString("order", string(table.Ascend)))
		if dir != table.Ascend && dir != table.Descend {
			return mcp.NewToolResultError(fmt.Sprintf("order: unknown direction %q", dir)), nil
		}
		st = st.WithSort(table.Sort{Column: col, Direction: dir})
	}

	res := s.svc.List(ctx, reportservice.Query{
		State:    st,
		Page:     req.GetInt("page", 1),
		PageSize: req.GetInt("page_size", 0),
	})
	return jsonResult(res)
}

func (s *Server) filterOptions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.FilterOptions(ctx))
}

func (s *Server) getReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

func (s *Server) resolveMenu(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	route, ok := s.svc.ResolveMenu(ctx, key)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("no route for key %s", key)), nil
	}
	return mcp.NewToolResultText(route), nil
}

func (s *Server) readMenuResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.svc.Menu(ctx), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MenuURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
