// Package mcpserver provides an MCP (Model Context Protocol) server that
// lets LLM clients read, preview, and publish briefings over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dailybrief/internal/apperr"
	"github.com/starford/dailybrief/internal/models"
	"github.com/starford/dailybrief/internal/publisher"
)

// FormatURI is the resource URI of the briefing format description.
const FormatURI = "dailybrief://briefing-format"

// Server wraps the MCP server with daily brief tools.
type Server struct {
	mcp *server.MCPServer
	svc *publisher.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *publisher.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Tucson Daily Brief",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published posts newest first with their date, slug and lede."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of posts (default: all)")),
		mcp.WithNumber("offset", mcp.Description("Number of posts to skip")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the rendered HTML page of a published post."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post date as YYYY-MM-DD")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Search post ledes. Requires the SQLite catalog to be enabled."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("publish_briefing",
		mcp.WithDescription("Publish a briefing and rebuild the index. Pass either path "+
			"(a dated briefing file on disk) or date and content. Content MUST follow the "+
			"briefing format; read it first via get_briefing_format or the "+FormatURI+" resource."),
		mcp.WithString("path", mcp.Description("Briefing file whose name contains YYYY-MM-DD")),
		mcp.WithString("date", mcp.Description("Post date as YYYY-MM-DD, used with content")),
		mcp.WithString("content", mcp.Description("Briefing text, used with date")),
	), s.publishBriefing)

	s.mcp.AddTool(mcp.NewTool("preview_briefing",
		mcp.WithDescription("Parse a briefing without writing anything. Returns its blocks, lede and body HTML."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Post date as YYYY-MM-DD")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Briefing text")),
	), s.previewBriefing)

	s.mcp.AddTool(mcp.NewTool("get_briefing_format",
		mcp.WithDescription("Returns the briefing format. Call this before writing a briefing."),
	), s.getBriefingFormat)

	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Briefing Format",
			mcp.WithResourceDescription("Plain-text briefing format accepted by the publisher."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio serves MCP over in and out (normally stdin and stdout) until
// ctx is cancelled or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type postItem struct {
	Slug string `json:"slug"`
	Date string `json:"date"`
	Lede string `json:"lede"`
}

func postItems(posts []models.Post) []postItem {
	out := make([]postItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, postItem{Slug: p.Slug, Date: p.Date.Format(models.SlugLayout), Lede: p.Lede})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, total, err := s.svc.ListPosts(req.GetInt("limit", 0), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"posts": postItems(posts), "total": total})
}

func (s *Server) readPost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.ReadPost(slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(page)), nil
}

func (s *Server) searchPosts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	posts, err := s.svc.Search(query, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(postItems(posts))
}

func (s *Server) publishBriefing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	date := req.GetString("date", "")
	content := req.GetString("content", "")

	var (
		res *publisher.Result
		err error
	)
	switch {
	case path != "" && (date != "" || content != ""):
		return mcp.NewToolResultError("pass either path or date and content, not both"), nil
	case path != "":
		res, err = s.svc.Publish(ctx, path)
	case date != "" && content != "":
		res, err = s.svc.PublishText(ctx, date, content)
	default:
		return mcp.NewToolResultError("path, or date and content, are required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) previewBriefing(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	preview, err := publisher.PreviewBriefing(date, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(preview)
}

func (s *Server) getBriefingFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BriefingFormat), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     BriefingFormat,
		},
	}, nil
}
