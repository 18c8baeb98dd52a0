package ops

import (
	"context"
	"database/sql"

	"github.com/thedatadavis/webgrab/internal/db"
)

// PageCountInput contains parameters for the PageCount operation.
type PageCountInput struct {
	BatchID *string // nil means count across all batches
}

// PageCountOutput contains the result of the PageCount operation.
type PageCountOutput struct {
	Count int    `json:"count"`
	Scope string `json:"scope"` // batch | all
}

// PageCount counts pages in one batch, or all pages when no batch id is
// given. A non-existent batch id yields 0 rather than an error.
func PageCount(ctx context.Context, database *sql.DB, input PageCountInput) (*PageCountOutput, error) {
	count, err := db.CountPages(database, input.BatchID)
	if err != nil {
		return nil, err
	}

	scope := "all"
	if input.BatchID != nil {
		scope = "batch"
	}

	return &PageCountOutput{Count: count, Scope: scope}, nil
}
