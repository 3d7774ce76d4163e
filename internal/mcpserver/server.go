// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the file catalog to LLM clients via stdio transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/render"
	"github.com/starford/filecat/internal/workspace"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *workspace.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *workspace.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"filecat",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List every file the catalog retains, depth first, one path per line."),
		mcp.WithString("prefix", mcp.Description("Optional directory prefix, e.g. /content/pages/")),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("catalog_tree",
		mcp.WithDescription("Render the visible directory tree. Collapsed directories hide their contents."),
		mcp.WithBoolean("sorted", mcp.Description("Sort siblings by name instead of first appearance")),
	), s.catalogTree)

	s.mcp.AddTool(mcp.NewTool("reveal_file",
		mcp.WithDescription("Expand every ancestor directory of a file so it becomes visible. "+
			"The expansion is not persisted."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute file path, e.g. /content/pages/index.yaml")),
	), s.revealFile)

	s.mcp.AddTool(mcp.NewTool("toggle_directory",
		mcp.WithDescription("Expand or collapse a directory. The new state is persisted."),
		mcp.WithString("root", mcp.Required(), mcp.Description("Directory root with trailing slash, e.g. /content/")),
	), s.toggleDirectory)

	s.mcp.AddTool(mcp.NewTool("reference_options",
		mcp.WithDescription("List the files a document-reference field may point at."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of options (0 for all)")),
	), s.referenceOptions)

	s.mcp.AddResource(
		mcp.NewResource(FilterRulesURI, "Path Filter Rules",
			mcp.WithResourceDescription("How include and exclude patterns select catalog files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFilterRules,
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

func (s *Server) listFiles(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := req.GetString("prefix", "")
	var paths []string
	for _, p := range models.Paths(s.svc.Files()) {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no files"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) catalogTree(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := s.svc.Render(render.NewText(&buf, req.GetBool("sorted", false))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) revealFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chain := s.svc.Reveal(path)
	out, _ := json.MarshalIndent(map[string]any{"path": path, "expanded": chain}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) toggleDirectory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expanded, err := s.svc.Toggle(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state := "collapsed"
	if expanded {
		state = "expanded"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s", root, state)), nil
}

func (s *Server) referenceOptions(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.svc.ReferenceOptions(req.GetString("query", ""), req.GetInt("limit", 0))
	out, _ := json.MarshalIndent(opts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readFilterRules(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FilterRulesURI,
			MIMEType: "text/markdown",
			Text:     FilterRules(s.svc.Filter()),
		},
	}, nil
}
