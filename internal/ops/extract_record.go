package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/errors"
	"github.com/thedatadavis/webgrab/internal/extract"
)

// ExtractAndRecordInput contains parameters for the ExtractAndRecord operation.
type ExtractAndRecordInput struct {
	Directory   string // selector config name
	HTMLContent string // serialized search-result document
}

// ExtractAndRecordOutput contains the result of the ExtractAndRecord operation.
type ExtractAndRecordOutput struct {
	Directory string `json:"directory"`
	Matched   int    `json:"matched"`
	Added     int    `json:"added"`
}

// ExtractAndRecord runs the extraction engine with the named selector
// configuration against the supplied markup and appends the results to the
// prospect ledger. Zero matched listings is a success with matched=0.
func ExtractAndRecord(ctx context.Context, database *sql.DB, configs extract.ConfigSet, input ExtractAndRecordInput) (*ExtractAndRecordOutput, error) {
	if strings.TrimSpace(input.Directory) == "" {
		return nil, errors.NewInvalidRequest("directory is required")
	}
	cfg, ok := configs[input.Directory]
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("no selector config for directory %q", input.Directory))
	}
	if strings.TrimSpace(input.HTMLContent) == "" {
		return nil, errors.NewPageRetrieval(input.Directory)
	}

	records, err := extract.Extract(cfg, strings.NewReader(input.HTMLContent))
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	prospects := make([]archive.Prospect, len(records))
	for i, rec := range records {
		prospects[i] = ProspectFromRecord(rec, now)
	}

	recorded, err := RecordProspects(ctx, database, RecordProspectsInput{Records: prospects})
	if err != nil {
		return nil, err
	}

	return &ExtractAndRecordOutput{
		Directory: input.Directory,
		Matched:   len(records),
		Added:     recorded.Added,
	}, nil
}
