package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/errors"
)

// CreateBatchInput contains parameters for the CreateBatch operation.
type CreateBatchInput struct {
	Name string // required, unique case-insensitively
}

// CreateBatchOutput contains the result of the CreateBatch operation.
type CreateBatchOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PageCount int    `json:"page_count"`
	CreatedAt int64  `json:"created_at"`
}

// CreateBatch creates a new empty batch. The name must be non-blank and must
// not collide case-insensitively with an existing batch; the check and the
// insert are one indivisible store operation.
func CreateBatch(ctx context.Context, database *sql.DB, input CreateBatchInput) (*CreateBatchOutput, error) {
	nameNorm := archive.NormalizeName(input.Name)
	if nameNorm == "" {
		return nil, errors.NewEmptyName()
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	b := &archive.Batch{
		ID:        id,
		NameRaw:   input.Name,
		NameNorm:  nameNorm,
		CreatedAt: time.Now().Unix(),
	}

	if err := db.InsertBatch(database, b); err != nil {
		if err == db.ErrUniqueConstraint {
			return nil, errors.NewNameConflict(input.Name)
		}
		return nil, err
	}

	return &CreateBatchOutput{
		ID:        b.ID,
		Name:      b.NameRaw,
		PageCount: 0,
		CreatedAt: b.CreatedAt,
	}, nil
}
