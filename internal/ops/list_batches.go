package ops

import (
	"context"
	"database/sql"

	"github.com/thedatadavis/webgrab/internal/db"
)

// BatchSummary is one row of the batch list.
type BatchSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PageCount   int    `json:"page_count"`
	CreatedAt   int64  `json:"created_at"`
	LastSavedAt *int64 `json:"last_saved_at"`
}

// ListBatchesOutput contains the result of the ListBatches operation.
type ListBatchesOutput struct {
	Batches []BatchSummary `json:"batches"`
	Sort    string         `json:"sort"`
}

// ListBatches returns all batches sorted by name, case-insensitive ascending.
func ListBatches(ctx context.Context, database *sql.DB) (*ListBatchesOutput, error) {
	batches, err := db.ListBatches(database)
	if err != nil {
		return nil, err
	}

	summaries := make([]BatchSummary, len(batches))
	for i, b := range batches {
		summaries[i] = BatchSummary{
			ID:          b.ID,
			Name:        b.NameRaw,
			PageCount:   b.PageCount,
			CreatedAt:   b.CreatedAt,
			LastSavedAt: b.LastSavedAt,
		}
	}

	return &ListBatchesOutput{
		Batches: summaries,
		Sort:    "name_asc",
	}, nil
}
