// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the lunch menu to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/menuservice"
	"github.com/starford/oxmenu/internal/models"
)

// MenuService is the subset of the menu pipeline exposed as tools.
type MenuService interface {
	Lookup(ctx context.Context, text string, now time.Time) (*menuservice.DayMenu, error)
	ResetCache() int
	CachedWeeks() []menucache.KeyedEntry
	Candidates(text string, now time.Time) (models.WeekKey, []string, error)
}

// Server wraps the MCP server with menu tools.
type Server struct {
	mcp     *server.MCPServer
	svc     MenuService
	now     func() time.Time
	onReset func(dropped int)
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithResetHook is called after reset_menu_cache dropped entries.
func WithResetHook(h func(dropped int)) Option {
	return func(s *Server) { s.onReset = h }
}

// New creates a new MCP server with all menu tools registered.
func New(svc MenuService, version string, opts ...Option) *Server {
	s := &Server{svc: svc, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		"oxmenu",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_menu",
		mcp.WithDescription("Return the lunch menu for a day. The date may be natural language "+
			"(\"tomorrow\", \"February 7 2019\", \"15/02\"); empty means today."),
		mcp.WithString("date", mcp.Description("Date to look up (optional)")),
	), s.getMenu)

	s.mcp.AddTool(mcp.NewTool("list_cached_weeks",
		mcp.WithDescription("List the weeks currently memoized, including weeks known to have no menu."),
	), s.listCachedWeeks)

	s.mcp.AddTool(mcp.NewTool("reset_menu_cache",
		mcp.WithDescription("Forget all memoized weeks so that the next request downloads again."),
	), s.resetMenuCache)

	s.mcp.AddTool(mcp.NewTool("list_candidates",
		mcp.WithDescription("Show the document URLs tried for the week containing a date, in order."),
		mcp.WithString("date", mcp.Description("Date inside the week (optional, default today)")),
	), s.listCandidates)

	s.mcp.AddResource(
		mcp.NewResource("oxmenu://weeks", "Cached Weeks",
			mcp.WithResourceDescription("Weeks currently memoized by the menu service."),
			mcp.WithMIMEType("application/json"),
		),
		s.readWeeksResource,
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

func (s *Server) getMenu(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	m, err := s.svc.Lookup(ctx, date, s.now())
	switch {
	case err == nil:
		return mcp.NewToolResultText(m.Text), nil
	case errors.Is(err, apperr.ErrDateParse):
		return mcp.NewToolResultError(menuservice.MsgDateParse), nil
	default:
		return mcp.NewToolResultText(menuservice.Message(nil, err)), nil
	}
}

func (s *Server) listCachedWeeks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := s.svc.CachedWeeks()
	if len(weeks) == 0 {
		return mcp.NewToolResultText("no weeks cached"), nil
	}
	lines := make([]string, 0, len(weeks))
	for _, w := range weeks {
		state := "unavailable"
		if w.Found {
			state = "menu " + w.Source
		}
		lines = append(lines, fmt.Sprintf("%s %s", w.Key, state))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) resetMenuCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.svc.ResetCache()
	if s.onReset != nil {
		s.onReset(n)
	}
	return mcp.NewToolResultText(fmt.Sprintf("dropped %d cached weeks", n)), nil
}

func (s *Server) listCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, urls, err := s.svc.Candidates(req.GetString("date", ""), s.now())
	if err != nil {
		if errors.Is(err, apperr.ErrDateParse) {
			return mcp.NewToolResultError(menuservice.MsgDateParse), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(key.String() + "\n" + strings.Join(urls, "\n")), nil
}

func (s *Server) readWeeksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.MarshalIndent(s.svc.CachedWeeks(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "oxmenu://weeks",
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
