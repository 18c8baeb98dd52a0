package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/thedatadavis/webgrab/internal/errors"
)

func TestDeleteBatchCascades(t *testing.T) {
	database := testDB(t)
	batch := mustCreateBatch(t, database, "doomed")
	mustSavePage(t, database, batch.ID, "https://example.com/1")
	mustSavePage(t, database, batch.ID, "https://example.com/2")

	out, err := DeleteBatch(context.Background(), database, DeleteBatchInput{BatchID: batch.ID})
	if err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if !out.Existed {
		t.Error("expected existed=true")
	}
	if out.PagesDeleted != 2 {
		t.Errorf("pages deleted = %d", out.PagesDeleted)
	}
	if !strings.Contains(out.Message, "2 pages") {
		t.Errorf("message = %q", out.Message)
	}

	list, err := ListBatches(context.Background(), database)
	if err != nil {
		t.Fatalf("ListBatches failed: %v", err)
	}
	if len(list.Batches) != 0 {
		t.Errorf("batch survived delete: %v", list.Batches)
	}

	count, err := PageCount(context.Background(), database, PageCountInput{BatchID: &batch.ID})
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if count.Count != 0 {
		t.Errorf("pages survived cascade: %d", count.Count)
	}
}

func TestDeleteBatchEmptyBatch(t *testing.T) {
	database := testDB(t)
	batch := mustCreateBatch(t, database, "empty")

	out, err := DeleteBatch(context.Background(), database, DeleteBatchInput{BatchID: batch.ID})
	if err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if !out.Existed || out.PagesDeleted != 0 {
		t.Errorf("expected existed with 0 pages, got %+v", out)
	}
}

func TestDeleteBatchMissingIsNoOp(t *testing.T) {
	database := testDB(t)

	out, err := DeleteBatch(context.Background(), database, DeleteBatchInput{BatchID: "01MISSING"})
	if err != nil {
		t.Fatalf("delete of missing batch should succeed: %v", err)
	}
	if out.Existed || out.PagesDeleted != 0 {
		t.Errorf("expected no-op, got %+v", out)
	}
}

func TestDeleteBatchRequiresID(t *testing.T) {
	database := testDB(t)
	_, err := DeleteBatch(context.Background(), database, DeleteBatchInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}
}
