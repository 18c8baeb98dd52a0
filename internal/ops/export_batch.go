package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/errors"
)

// Export statuses reported by ExportBatch.
const (
	ExportStatusSuccess = "success"
	ExportStatusEmpty   = "empty" // batch has no pages; no artifact produced
)

// batchIDFragmentLen is how much of the batch ULID goes into the filename.
const batchIDFragmentLen = 8

// ExportBatchInput contains parameters for the ExportBatch operation.
type ExportBatchInput struct {
	BatchID string
	Dir     string // optional, default: ~/.webgrab/exports
}

// ExportBatchOutput contains the result of the ExportBatch operation.
type ExportBatchOutput struct {
	Status     string `json:"status"` // success | empty
	Path       string `json:"path,omitempty"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportBatch streams a batch's pages out as newline-delimited JSON, one
// page object per line. An empty batch reports the empty status and writes
// nothing. The artifact is written to a temp file and atomically renamed
// into place; a delivery failure never touches stored data.
func ExportBatch(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportBatchInput) (*ExportBatchOutput, error) {
	if strings.TrimSpace(input.BatchID) == "" {
		return nil, errors.NewInvalidRequest("batch_id is required")
	}

	batch, err := db.GetBatchByID(database, input.BatchID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exportedAt := now.Unix()

	count, err := db.CountPages(database, &input.BatchID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &ExportBatchOutput{
			Status:     ExportStatusEmpty,
			Count:      0,
			ExportedAt: exportedAt,
		}, nil
	}

	dir := input.Dir
	if dir == "" {
		dir, err = defaultExportDir(cfg)
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	exportPath := filepath.Join(dir, exportFilename(cfg, batch, now))

	// Write to temp file first, then atomic rename to preserve any existing
	// file on failure
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	// Clean up temp file on failure
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	rows, err := db.StreamPagesForExport(ctx, database, input.BatchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	written := 0
	enc := json.NewEncoder(file)
	for rows.Next() {
		page, err := db.ScanPageFromRows(rows)
		if err != nil {
			return nil, errors.NewStorage(err)
		}
		if err := enc.Encode(archive.PageToExportRecord(page)); err != nil {
			return nil, errors.NewInternal(err)
		}
		written++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportBatchOutput{
		Status:     ExportStatusSuccess,
		Path:       exportPath,
		Count:      written,
		ExportedAt: exportedAt,
	}, nil
}

// exportFilename builds the artifact name:
// <prefix>_<sanitizedName>_<idFragment>_<timestamp>.jsonl
func exportFilename(cfg *config.Config, batch *archive.Batch, now time.Time) string {
	prefix := "webgrab"
	if cfg != nil && cfg.ExportFilePrefix != "" {
		prefix = cfg.ExportFilePrefix
	}

	fragment := batch.ID
	if len(fragment) > batchIDFragmentLen {
		fragment = fragment[len(fragment)-batchIDFragmentLen:]
	}

	return fmt.Sprintf("%s_%s_%s_%s.jsonl",
		prefix,
		archive.SanitizeForFilename(batch.NameRaw),
		fragment,
		now.Format("2006-01-02T150405"),
	)
}

// defaultExportDir resolves the export directory under the user's home.
func defaultExportDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.ExportDir != "" {
		return cfg.ExportDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(homeDir, ".webgrab", "exports"), nil
}
