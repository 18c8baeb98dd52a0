package ops

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/errors"
)

// Save statuses reported by SavePage.
const (
	SaveStatusSaved   = "saved"   // URL was new to the batch
	SaveStatusUpdated = "updated" // existing snapshot replaced in place
)

// SavePageInput contains parameters for the SavePage operation.
type SavePageInput struct {
	BatchID     string
	URL         string
	HTMLContent string
}

// SavePageOutput contains the result of the SavePage operation.
type SavePageOutput struct {
	URL     string `json:"url"`
	BatchID string `json:"batch_id"`
	Status  string `json:"status"` // saved | updated
}

// SavePage archives a snapshot into a batch. Site and params are derived
// from the URL once, here. The upsert, the exists check, and the batch
// count/timestamp maintenance run as one transaction; a missing batch
// rejects the save before anything is written.
func SavePage(ctx context.Context, database *sql.DB, input SavePageInput) (*SavePageOutput, error) {
	if strings.TrimSpace(input.BatchID) == "" {
		return nil, errors.NewInvalidRequest("batch_id is required")
	}

	rawURL := strings.TrimSpace(input.URL)
	if rawURL == "" {
		return nil, errors.NewInvalidRequest("url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, errors.NewInvalidRequest("url must be absolute")
	}

	// The page-content accessor is an external collaborator; an empty body
	// means it failed to produce the document.
	if strings.TrimSpace(input.HTMLContent) == "" {
		return nil, errors.NewPageRetrieval(rawURL)
	}

	page := &archive.Page{
		BatchID:     input.BatchID,
		URL:         rawURL,
		Site:        parsed.Hostname(),
		Params:      parsed.RawQuery,
		HTMLContent: input.HTMLContent,
		RetrievedAt: time.Now().Unix(),
	}

	created, err := db.SavePage(ctx, database, page)
	if err != nil {
		return nil, err
	}

	status := SaveStatusUpdated
	if created {
		status = SaveStatusSaved
	}

	return &SavePageOutput{
		URL:     rawURL,
		BatchID: input.BatchID,
		Status:  status,
	}, nil
}
