package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/extract"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps command tags to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"batch_create": {
		def: mcp.NewTool("batch_create",
			mcp.WithDescription("Create a new named archive batch"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Batch name, unique case-insensitively")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBatchCreate },
	},
	"batch_list": {
		def: mcp.NewTool("batch_list",
			mcp.WithDescription("List all batches sorted by name"),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBatchList },
	},
	"page_save": {
		def: mcp.NewTool("page_save",
			mcp.WithDescription("Archive a page snapshot into a batch"),
			mcp.WithString("batch_id", mcp.Required(), mcp.Description("Target batch ID")),
			mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
			mcp.WithString("html_content", mcp.Required(), mcp.Description("Full serialized page markup")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageSave },
	},
	"page_count": {
		def: mcp.NewTool("page_count",
			mcp.WithDescription("Count archived pages in one batch or across all batches"),
			mcp.WithString("batch_id", mcp.Description("Batch ID; omit to count all pages")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePageCount },
	},
	"batch_export": {
		def: mcp.NewTool("batch_export",
			mcp.WithDescription("Export a batch's pages as newline-delimited JSON"),
			mcp.WithString("batch_id", mcp.Required(), mcp.Description("Batch ID to export")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBatchExport },
	},
	"batch_delete": {
		def: mcp.NewTool("batch_delete",
			mcp.WithDescription("Delete a batch and all of its pages"),
			mcp.WithString("batch_id", mcp.Required(), mcp.Description("Batch ID to delete")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBatchDelete },
	},
	"extract_record": {
		def: mcp.NewTool("extract_record",
			mcp.WithDescription("Extract prospect listings from search-result markup and record them"),
			mcp.WithString("directory", mcp.Required(), mcp.Description("Selector configuration name")),
			mcp.WithString("html_content", mcp.Required(), mcp.Description("Serialized search-result page markup")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExtractRecord },
	},
	"prospect_record": {
		def: mcp.NewTool("prospect_record",
			mcp.WithDescription("Append already-extracted prospect records to the ledger"),
			mcp.WithArray("records", mcp.Required(), mcp.Description("Prospect records to append")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProspectRecord },
	},
	"prospect_export": {
		def: mcp.NewTool("prospect_export",
			mcp.WithDescription("Export the entire prospect ledger as a JSON array"),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProspectExport },
	},
	"prospect_clear": {
		def: mcp.NewTool("prospect_clear",
			mcp.WithDescription("Empty the prospect ledger"),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProspectClear },
	},
}

// AllToolNames returns a list of all valid command tags.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with webgrab tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, configs extract.ConfigSet, exportDir, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"webgrab",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, configs, exportDir)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, configs extract.ConfigSet, exportDir, version string) error {
	s := NewServer(db, cfg, configs, exportDir, version)
	return server.ServeStdio(s)
}

// Dispatch routes one tagged command through the same registry the stdio
// transport uses and returns its single result. Unregistered tags yield an
// UNKNOWN_COMMAND error result, never an error return.
func Dispatch(ctx context.Context, h *Handlers, tag string, args map[string]any) (*mcp.CallToolResult, error) {
	entry, ok := toolRegistry[tag]
	if !ok {
		return errorResult(unknownCommand(tag)), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tag
	req.Params.Arguments = args

	return entry.handler(h)(ctx, req)
}
