package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testBatch(t *testing.T, database *sql.DB, id, name string) *archive.Batch {
	t.Helper()
	b := &archive.Batch{
		ID:        id,
		NameRaw:   name,
		NameNorm:  archive.NormalizeName(name),
		CreatedAt: time.Now().Unix(),
	}
	if err := InsertBatch(database, b); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	return b
}

func testPage(batchID, url string) *archive.Page {
	return &archive.Page{
		BatchID:     batchID,
		URL:         url,
		Site:        "example.com",
		Params:      "q=test",
		HTMLContent: "<html><body>snapshot</body></html>",
		RetrievedAt: time.Now().Unix(),
	}
}

func TestInsertBatchDuplicateNameNorm(t *testing.T) {
	database := testDB(t)
	testBatch(t, database, "01A", "Plumbers NYC")

	dup := &archive.Batch{
		ID:        "01B",
		NameRaw:   "PLUMBERS nyc",
		NameNorm:  archive.NormalizeName("PLUMBERS nyc"),
		CreatedAt: time.Now().Unix(),
	}
	err := InsertBatch(database, dup)
	if err != ErrUniqueConstraint {
		t.Fatalf("expected ErrUniqueConstraint, got %v", err)
	}
}

func TestGetBatchByIDNotFound(t *testing.T) {
	database := testDB(t)
	_, err := GetBatchByID(database, "missing")
	if !errors.Is(err, errors.ErrBatchNotFound) {
		t.Fatalf("expected BATCH_NOT_FOUND, got %v", err)
	}
}

func TestListBatchesSortedByName(t *testing.T) {
	database := testDB(t)
	testBatch(t, database, "01A", "zebra")
	testBatch(t, database, "01B", "Alpha")
	testBatch(t, database, "01C", "mango")

	batches, err := ListBatches(database)
	if err != nil {
		t.Fatalf("ListBatches failed: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	want := []string{"Alpha", "mango", "zebra"}
	for i, name := range want {
		if batches[i].NameRaw != name {
			t.Errorf("position %d: expected %q, got %q", i, name, batches[i].NameRaw)
		}
	}
}

func TestSavePageNewAndUpdate(t *testing.T) {
	database := testDB(t)
	b := testBatch(t, database, "01A", "batch")
	ctx := context.Background()

	created, err := SavePage(ctx, database, testPage(b.ID, "https://example.com/1"))
	if err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}
	if !created {
		t.Error("first save should report created")
	}

	// Re-save same URL: updates in place, no count change.
	p2 := testPage(b.ID, "https://example.com/1")
	p2.HTMLContent = "<html>v2</html>"
	created, err = SavePage(ctx, database, p2)
	if err != nil {
		t.Fatalf("second SavePage failed: %v", err)
	}
	if created {
		t.Error("re-save should not report created")
	}

	got, err := GetBatchByID(database, b.ID)
	if err != nil {
		t.Fatalf("GetBatchByID failed: %v", err)
	}
	if got.PageCount != 1 {
		t.Errorf("expected page_count 1, got %d", got.PageCount)
	}
	if got.LastSavedAt == nil {
		t.Error("last_saved_at should be set after a save")
	}

	var html string
	if err := database.QueryRow(
		`SELECT html_content FROM pages WHERE batch_id = ? AND url = ?`,
		b.ID, "https://example.com/1").Scan(&html); err != nil {
		t.Fatalf("select page: %v", err)
	}
	if html != "<html>v2</html>" {
		t.Errorf("re-save did not update html_content: %q", html)
	}
}

func TestSavePageMissingBatchWritesNothing(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	_, err := SavePage(ctx, database, testPage("nonexistent", "https://example.com/1"))
	if !errors.Is(err, errors.ErrBatchNotFound) {
		t.Fatalf("expected BATCH_NOT_FOUND, got %v", err)
	}

	count, err := CountPages(database, nil)
	if err != nil {
		t.Fatalf("CountPages failed: %v", err)
	}
	if count != 0 {
		t.Errorf("orphan page written: count %d", count)
	}
}

func TestSavePageSameURLDifferentBatches(t *testing.T) {
	database := testDB(t)
	b1 := testBatch(t, database, "01A", "first")
	b2 := testBatch(t, database, "01B", "second")
	ctx := context.Background()

	url := "https://example.com/shared"
	if _, err := SavePage(ctx, database, testPage(b1.ID, url)); err != nil {
		t.Fatalf("save into first batch: %v", err)
	}
	if _, err := SavePage(ctx, database, testPage(b2.ID, url)); err != nil {
		t.Fatalf("save into second batch: %v", err)
	}

	// Composite key: neither batch's membership or count disturbs the other.
	for _, b := range []*archive.Batch{b1, b2} {
		got, err := GetBatchByID(database, b.ID)
		if err != nil {
			t.Fatalf("GetBatchByID failed: %v", err)
		}
		if got.PageCount != 1 {
			t.Errorf("batch %s: expected page_count 1, got %d", b.ID, got.PageCount)
		}
	}
}

func TestDeleteBatchCascade(t *testing.T) {
	database := testDB(t)
	b := testBatch(t, database, "01A", "doomed")
	keep := testBatch(t, database, "01B", "kept")
	ctx := context.Background()

	for _, url := range []string{"https://a.example/1", "https://a.example/2"} {
		if _, err := SavePage(ctx, database, testPage(b.ID, url)); err != nil {
			t.Fatalf("SavePage failed: %v", err)
		}
	}
	if _, err := SavePage(ctx, database, testPage(keep.ID, "https://b.example/1")); err != nil {
		t.Fatalf("SavePage failed: %v", err)
	}

	deleted, existed, err := DeleteBatchCascade(ctx, database, b.ID)
	if err != nil {
		t.Fatalf("DeleteBatchCascade failed: %v", err)
	}
	if !existed {
		t.Error("expected existed=true")
	}
	if deleted != 2 {
		t.Errorf("expected 2 pages deleted, got %d", deleted)
	}

	if _, err := GetBatchByID(database, b.ID); !errors.Is(err, errors.ErrBatchNotFound) {
		t.Errorf("batch should be gone, got %v", err)
	}
	count, err := CountPages(database, &b.ID)
	if err != nil {
		t.Fatalf("CountPages failed: %v", err)
	}
	if count != 0 {
		t.Errorf("pages survived cascade: %d", count)
	}

	// Unrelated batch untouched.
	count, err = CountPages(database, &keep.ID)
	if err != nil {
		t.Fatalf("CountPages failed: %v", err)
	}
	if count != 1 {
		t.Errorf("unrelated batch lost pages: %d", count)
	}
}

func TestDeleteBatchCascadeMissingID(t *testing.T) {
	database := testDB(t)
	deleted, existed, err := DeleteBatchCascade(context.Background(), database, "missing")
	if err != nil {
		t.Fatalf("DeleteBatchCascade failed: %v", err)
	}
	if existed || deleted != 0 {
		t.Errorf("expected no-op, got existed=%v deleted=%d", existed, deleted)
	}
}

func TestCountPagesMissingBatchIsZero(t *testing.T) {
	database := testDB(t)
	id := "missing"
	count, err := CountPages(database, &id)
	if err != nil {
		t.Fatalf("CountPages failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

func TestInsertProspectDedupe(t *testing.T) {
	database := testDB(t)
	p := &archive.Prospect{
		ProfileURL:   "https://directory.example/biz/1",
		Directory:    "yellowpages",
		BusinessName: "Acme Plumbing",
		Rating:       "4.5",
		ReviewCount:  "12",
		AddedAt:      time.Now().Unix(),
	}

	added, err := InsertProspect(database, p)
	if err != nil {
		t.Fatalf("InsertProspect failed: %v", err)
	}
	if !added {
		t.Error("first insert should add")
	}

	added, err = InsertProspect(database, p)
	if err != nil {
		t.Fatalf("duplicate InsertProspect failed: %v", err)
	}
	if added {
		t.Error("duplicate insert should be dropped")
	}
}

func TestAllProspectsArrivalOrder(t *testing.T) {
	database := testDB(t)
	urls := []string{"https://d.example/3", "https://d.example/1", "https://d.example/2"}
	for _, u := range urls {
		if _, err := InsertProspect(database, &archive.Prospect{
			ProfileURL: u, Directory: "d", BusinessName: "b",
			Rating: "0", ReviewCount: "0", AddedAt: time.Now().Unix(),
		}); err != nil {
			t.Fatalf("InsertProspect failed: %v", err)
		}
	}

	all, err := AllProspects(database)
	if err != nil {
		t.Fatalf("AllProspects failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 prospects, got %d", len(all))
	}
	for i, u := range urls {
		if all[i].ProfileURL != u {
			t.Errorf("position %d: expected %q, got %q", i, u, all[i].ProfileURL)
		}
	}
}

func TestClearProspects(t *testing.T) {
	database := testDB(t)
	for _, u := range []string{"https://d.example/1", "https://d.example/2"} {
		if _, err := InsertProspect(database, &archive.Prospect{
			ProfileURL: u, Directory: "d", BusinessName: "b",
			Rating: "0", ReviewCount: "0", AddedAt: time.Now().Unix(),
		}); err != nil {
			t.Fatalf("InsertProspect failed: %v", err)
		}
	}

	removed, err := ClearProspects(database)
	if err != nil {
		t.Fatalf("ClearProspects failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	all, err := AllProspects(database)
	if err != nil {
		t.Fatalf("AllProspects failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ledger not empty after clear: %d", len(all))
	}
}
