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

// RecordProspectsInput contains parameters for the RecordProspects operation.
type RecordProspectsInput struct {
	Records []archive.Prospect
}

// RecordProspectsOutput contains the result of the RecordProspects operation.
type RecordProspectsOutput struct {
	Received int `json:"received"`
	Added    int `json:"added"`
}

// RecordProspects appends extracted records to the ledger. Records without a
// profile URL, and records whose profile URL is already known, are dropped
// silently; everything else is appended in arrival order.
func RecordProspects(ctx context.Context, database *sql.DB, input RecordProspectsInput) (*RecordProspectsOutput, error) {
	now := time.Now().Unix()
	added := 0

	for _, p := range input.Records {
		if strings.TrimSpace(p.ProfileURL) == "" {
			continue
		}
		if p.AddedAt == 0 {
			p.AddedAt = now
		}
		ok, err := db.InsertProspect(database, &p)
		if err != nil {
			return nil, err
		}
		if ok {
			added++
		}
	}

	return &RecordProspectsOutput{
		Received: len(input.Records),
		Added:    added,
	}, nil
}

// ExportProspectsInput contains parameters for the ExportProspects operation.
type ExportProspectsInput struct {
	Dir string // optional, default: ~/.webgrab/exports
}

// ExportProspectsOutput contains the result of the ExportProspects operation.
type ExportProspectsOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportProspects serializes the entire ledger as one pretty-printed JSON
// array. An empty ledger exports an empty array.
func ExportProspects(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportProspectsInput) (*ExportProspectsOutput, error) {
	prospects, err := db.AllProspects(database)
	if err != nil {
		return nil, err
	}

	now := time.Now()

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

	prefix := "webgrab"
	if cfg != nil && cfg.ExportFilePrefix != "" {
		prefix = cfg.ExportFilePrefix
	}
	exportPath := filepath.Join(dir,
		fmt.Sprintf("%s_prospects_%s.json", prefix, now.Format("2006-01-02T150405")))

	data, err := json.MarshalIndent(prospects, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	// Same temp-then-rename delivery as batch export.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	if err := os.WriteFile(tempPath, append(data, '\n'), 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		os.Remove(tempPath)
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	return &ExportProspectsOutput{
		Path:       exportPath,
		Count:      len(prospects),
		ExportedAt: now.Unix(),
	}, nil
}

// ClearProspectsOutput contains the result of the ClearProspects operation.
type ClearProspectsOutput struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

// ClearProspects empties the ledger unconditionally. Confirmation is the
// caller's concern.
func ClearProspects(ctx context.Context, database *sql.DB) (*ClearProspectsOutput, error) {
	removed, err := db.ClearProspects(database)
	if err != nil {
		return nil, err
	}

	message := "Ledger already empty"
	if removed > 0 {
		word := "prospect"
		if removed > 1 {
			word = "prospects"
		}
		message = fmt.Sprintf("Removed %d %s", removed, word)
	}

	return &ClearProspectsOutput{Removed: removed, Message: message}, nil
}
