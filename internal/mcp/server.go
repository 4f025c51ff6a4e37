// Package mcp provides a Model Context Protocol server for GhostText.
//
// It exposes the processing pipeline and the year stores as MCP tools
// (process, years, participants, sources, context) over stdio transport,
// so an MCP-capable client can rebuild the stores and pull assembled
// persona context without going through the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ghosttxt/ghosttext/internal/answer"
	"github.com/ghosttxt/ghosttext/internal/record"
	"github.com/ghosttxt/ghosttext/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store     *store.Store
	Processor *store.Processor
	Assembler *answer.Assembler
	// DataDir is the raw export directory the process tool reads.
	DataDir string
	// UserSetting is the dial the context tool derives its budget from.
	UserSetting float64
	Version     string
}

// storeMu serializes tool calls. The mcp-go library dispatches handlers
// concurrently via goroutines, and a process run must not interleave with
// reads of the year files it is rewriting.
var storeMu sync.Mutex

// NewServer creates a configured MCP server with all GhostText tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"GhostText",
		ver,
		server.WithToolCapabilities(false),
	)

	registerProcessTool(s, cfg)
	registerYearsTool(s, cfg)
	registerParticipantsTool(s, cfg)
	registerSourcesTool(s, cfg)
	registerContextTool(s, cfg)

	return s
}

// Serve runs the server on stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerProcessTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("ghosttext_process",
		mcp.WithDescription("Rebuild the year stores from the raw export directory. Clears existing stores first. Returns the years written and which input files were processed."),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storeMu.Lock()
		defer storeMu.Unlock()

		result, err := cfg.Processor.Run(cfg.DataDir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerYearsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("ghosttext_years",
		mcp.WithDescription("List the calendar years that have stored records."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storeMu.Lock()
		defer storeMu.Unlock()

		years, err := cfg.Store.AvailableYears()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing years: %v", err)), nil
		}
		if years == nil {
			years = []int{}
		}

		data, _ := json.MarshalIndent(years, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerParticipantsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("ghosttext_participants",
		mcp.WithDescription("List the senders found in one year's records, grouped by platform and ordered by message count. Use this to pick the user's own name per platform before requesting context."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Calendar year to inspect"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storeMu.Lock()
		defer storeMu.Unlock()

		records, result := loadYearArg(cfg, req)
		if result != nil {
			return result, nil
		}

		data, _ := json.MarshalIndent(answer.ParticipantCensus(records), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerSourcesTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("ghosttext_sources",
		mcp.WithDescription("List the conversations represented in one year's records as human-readable names, grouped by platform."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Calendar year to inspect"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storeMu.Lock()
		defer storeMu.Unlock()

		records, result := loadYearArg(cfg, req)
		if result != nil {
			return result, nil
		}

		data, _ := json.MarshalIndent(answer.SourceDisplayNames(records), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerContextTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("ghosttext_context",
		mcp.WithDescription("Assemble the persona context block for one year. Provide the user's own name on each platform so conversation partners can be identified; unnamed platforms fall back to listing all participants."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Calendar year to assemble"),
		),
		mcp.WithString("whatsapp_name",
			mcp.Description("The user's own sender name in WhatsApp records"),
		),
		mcp.WithString("discord_name",
			mcp.Description("The user's own identity in Discord records (username#discriminator)"),
		),
		mcp.WithString("instagram_name",
			mcp.Description("The user's own sender name in Instagram records"),
		),
		mcp.WithString("facebook_name",
			mcp.Description("The user's own sender name in Facebook records"),
		),
		mcp.WithNumber("setting",
			mcp.Description("Context dial in [0.1, 1.0]; higher means a smaller context and hotter sampling (default: server setting)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		storeMu.Lock()
		defer storeMu.Unlock()

		records, result := loadYearArg(cfg, req)
		if result != nil {
			return result, nil
		}

		identities := answer.IdentityMap{}
		for param, platform := range map[string]record.Platform{
			"whatsapp_name":  record.PlatformWhatsApp,
			"discord_name":   record.PlatformDiscord,
			"instagram_name": record.PlatformInstagram,
			"facebook_name":  record.PlatformFacebook,
		} {
			if v, err := req.RequireString(param); err == nil && v != "" {
				identities[platform] = v
			}
		}

		setting := cfg.UserSetting
		if v, err := req.RequireFloat("setting"); err == nil && v != 0 {
			setting = v
		}
		budget := answer.DeriveBudget(setting)

		yearVal, _ := req.RequireFloat("year")
		text, err := cfg.Assembler.Assemble(int(yearVal), records, identities, budget)
		if err != nil {
			if errors.Is(err, answer.ErrNoContext) {
				return mcp.NewToolResultError("no context could be assembled; provide at least one platform name"), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("assembling context: %v", err)), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

// loadYearArg reads the required year argument and loads that year's
// records. It returns a non-nil tool result on any failure.
func loadYearArg(cfg ServerConfig, req mcp.CallToolRequest) ([]record.Record, *mcp.CallToolResult) {
	yearVal, err := req.RequireFloat("year")
	if err != nil {
		return nil, mcp.NewToolResultError("year is required")
	}
	records, err := cfg.Store.LoadYear(int(yearVal))
	if err != nil {
		if errors.Is(err, store.ErrYearNotFound) {
			return nil, mcp.NewToolResultError(fmt.Sprintf("no records stored for year %d", int(yearVal)))
		}
		return nil, mcp.NewToolResultError(fmt.Sprintf("loading year %d: %v", int(yearVal), err))
	}
	return records, nil
}
