package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/errors"
	"github.com/thedatadavis/webgrab/internal/extract"
	"github.com/thedatadavis/webgrab/internal/ops"
)

// Handlers holds dependencies for dispatcher tool handlers.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	configs   extract.ConfigSet
	exportDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, configs extract.ConfigSet, exportDir string) *Handlers {
	return &Handlers{db: db, cfg: cfg, configs: configs, exportDir: exportDir}
}

// Request types for each tool

// BatchCreateRequest represents the arguments for batch_create.
type BatchCreateRequest struct {
	Name string `json:"name"`
}

// PageSaveRequest represents the arguments for page_save.
type PageSaveRequest struct {
	BatchID     string `json:"batch_id"`
	URL         string `json:"url"`
	HTMLContent string `json:"html_content"`
}

// PageCountRequest represents the arguments for page_count.
type PageCountRequest struct {
	BatchID *string `json:"batch_id,omitempty"`
}

// BatchExportRequest represents the arguments for batch_export.
type BatchExportRequest struct {
	BatchID string `json:"batch_id"`
}

// BatchDeleteRequest represents the arguments for batch_delete.
type BatchDeleteRequest struct {
	BatchID string `json:"batch_id"`
}

// ExtractRecordRequest represents the arguments for extract_record.
type ExtractRecordRequest struct {
	Directory   string `json:"directory"`
	HTMLContent string `json:"html_content"`
}

// ProspectRecordRequest represents the arguments for prospect_record.
type ProspectRecordRequest struct {
	Records []archive.Prospect `json:"records"`
}

// Handler implementations

// HandleBatchCreate handles the batch_create tool call.
func (h *Handlers) HandleBatchCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BatchCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateBatch(ctx, h.db, ops.CreateBatchInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBatchList handles the batch_list tool call.
func (h *Handlers) HandleBatchList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListBatches(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePageSave handles the page_save tool call.
func (h *Handlers) HandlePageSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SavePage(ctx, h.db, ops.SavePageInput{
		BatchID:     input.BatchID,
		URL:         input.URL,
		HTMLContent: input.HTMLContent,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePageCount handles the page_count tool call.
func (h *Handlers) HandlePageCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageCountRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PageCount(ctx, h.db, ops.PageCountInput{BatchID: input.BatchID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBatchExport handles the batch_export tool call.
func (h *Handlers) HandleBatchExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BatchExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ExportBatch(ctx, h.db, h.cfg, ops.ExportBatchInput{
		BatchID: input.BatchID,
		Dir:     h.exportDir,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBatchDelete handles the batch_delete tool call.
func (h *Handlers) HandleBatchDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BatchDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteBatch(ctx, h.db, ops.DeleteBatchInput{BatchID: input.BatchID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExtractRecord handles the extract_record tool call.
func (h *Handlers) HandleExtractRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ExtractAndRecord(ctx, h.db, h.configs, ops.ExtractAndRecordInput{
		Directory:   input.Directory,
		HTMLContent: input.HTMLContent,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProspectRecord handles the prospect_record tool call.
func (h *Handlers) HandleProspectRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ProspectRecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RecordProspects(ctx, h.db, ops.RecordProspectsInput{Records: input.Records})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProspectExport handles the prospect_export tool call.
func (h *Handlers) HandleProspectExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ExportProspects(ctx, h.db, h.cfg, ops.ExportProspectsInput{Dir: h.exportDir})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProspectClear handles the prospect_clear tool call.
func (h *Handlers) HandleProspectClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ClearProspects(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// unknownCommand builds the error for an unregistered command tag.
func unknownCommand(tag string) error {
	return errors.NewUnknownCommand(tag)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so clients recognize failures properly.
// Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.ArchiveError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		if aErr.Code != errors.ErrInternal && aErr.Code != errors.ErrStorage && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
