package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/errors"
)

// DeleteBatchInput contains parameters for the DeleteBatch operation.
type DeleteBatchInput struct {
	BatchID string
}

// DeleteBatchOutput contains the result of the DeleteBatch operation.
type DeleteBatchOutput struct {
	Existed      bool   `json:"existed"`
	PagesDeleted int    `json:"pages_deleted"`
	Message      string `json:"message"`
}

// DeleteBatch removes a batch and all of its pages in one transaction.
// Deleting a batch that does not exist is a no-op success.
func DeleteBatch(ctx context.Context, database *sql.DB, input DeleteBatchInput) (*DeleteBatchOutput, error) {
	if strings.TrimSpace(input.BatchID) == "" {
		return nil, errors.NewInvalidRequest("batch_id is required")
	}

	pagesDeleted, existed, err := db.DeleteBatchCascade(ctx, database, input.BatchID)
	if err != nil {
		return nil, err
	}

	return &DeleteBatchOutput{
		Existed:      existed,
		PagesDeleted: pagesDeleted,
		Message:      formatDeleteMessage(existed, pagesDeleted),
	}, nil
}

// formatDeleteMessage creates a human-readable message for the delete result.
func formatDeleteMessage(existed bool, pages int) string {
	if !existed {
		return "No such batch; nothing deleted"
	}

	pageWord := "page"
	if pages != 1 {
		pageWord = "pages"
	}
	return fmt.Sprintf("Deleted batch and %d %s", pages, pageWord)
}
