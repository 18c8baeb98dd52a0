package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/config"
	"github.com/thedatadavis/webgrab/internal/db"
)

// TestArchiveWorkflow walks the full batch lifecycle: create, save, re-save,
// export, delete.
func TestArchiveWorkflow(t *testing.T) {
	database := testDB(t)
	exportDir := t.TempDir()
	ctx := context.Background()

	created, err := CreateBatch(ctx, database, CreateBatchInput{Name: "Plumbers NYC"})
	require.NoError(t, err)

	// Save three pages, one of them twice.
	for _, url := range []string{
		"https://example.com/search?page=1",
		"https://example.com/search?page=2",
		"https://example.com/search?page=3",
		"https://example.com/search?page=2",
	} {
		_, err := SavePage(ctx, database, SavePageInput{
			BatchID:     created.ID,
			URL:         url,
			HTMLContent: "<html><body>" + url + "</body></html>",
		})
		require.NoError(t, err)
	}

	list, err := ListBatches(ctx, database)
	require.NoError(t, err)
	require.Len(t, list.Batches, 1)
	assert.Equal(t, 3, list.Batches[0].PageCount)
	assert.NotNil(t, list.Batches[0].LastSavedAt)

	exported, err := ExportBatch(ctx, database, config.DefaultConfig(), ExportBatchInput{
		BatchID: created.ID,
		Dir:     exportDir,
	})
	require.NoError(t, err)
	assert.Equal(t, ExportStatusSuccess, exported.Status)
	assert.Equal(t, 3, exported.Count)

	file, err := os.Open(exported.Path)
	require.NoError(t, err)
	defer file.Close()
	scanner := bufio.NewScanner(file)
	lines := 0
	for scanner.Scan() {
		var rec archive.PageExportRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 3, lines)

	deleted, err := DeleteBatch(ctx, database, DeleteBatchInput{BatchID: created.ID})
	require.NoError(t, err)
	assert.True(t, deleted.Existed)
	assert.Equal(t, 3, deleted.PagesDeleted)

	total, err := PageCount(ctx, database, PageCountInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, total.Count)
}

// TestConcurrentSavesKeepCountInvariant hammers one batch from several
// goroutines; the stored counter must end up equal to the distinct URL count.
func TestConcurrentSavesKeepCountInvariant(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	created, err := CreateBatch(ctx, database, CreateBatchInput{Name: "contended"})
	require.NoError(t, err)

	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, u := range urls {
				_, err := SavePage(ctx, database, SavePageInput{
					BatchID:     created.ID,
					URL:         u,
					HTMLContent: "<html></html>",
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, err := PageCount(ctx, database, PageCountInput{BatchID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, len(urls), count.Count)

	list, err := ListBatches(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, len(urls), list.Batches[0].PageCount)
}

// TestConcurrentCreateSingleWinner races two creates of the same name; the
// unique index must let exactly one through.
func TestConcurrentCreateSingleWinner(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := CreateBatch(ctx, database, CreateBatchInput{Name: "Raced"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one create should lose the race")

	batches, err := db.ListBatches(database)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}
