package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.ArchiveError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// InsertBatch stores a new batch. The unique index on name_norm makes the
// uniqueness check and the insert a single indivisible operation.
func InsertBatch(db *sql.DB, b *archive.Batch) error {
	query := `
		INSERT INTO batches (id, name_raw, name_norm, page_count, created_at, last_saved_at)
		VALUES (?, ?, ?, 0, ?, NULL)
	`

	_, err := db.Exec(query, b.ID, b.NameRaw, b.NameNorm, b.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewStorage(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetBatchByID retrieves a batch by its ULID.
func GetBatchByID(db *sql.DB, id string) (*archive.Batch, error) {
	query := `
		SELECT id, name_raw, name_norm, page_count, created_at, last_saved_at
		FROM batches
		WHERE id = ?
	`

	row := db.QueryRow(query, id)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewBatchNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStorage(err)
	}

	return b, nil
}

// ListBatches retrieves all batches sorted by normalized name ascending.
func ListBatches(db *sql.DB) ([]archive.Batch, error) {
	query := `
		SELECT id, name_raw, name_norm, page_count, created_at, last_saved_at
		FROM batches
		ORDER BY name_norm ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	batches := []archive.Batch{}
	for rows.Next() {
		var (
			b           archive.Batch
			lastSavedAt sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.NameRaw, &b.NameNorm, &b.PageCount, &b.CreatedAt, &lastSavedAt); err != nil {
			return nil, errors.NewStorage(err)
		}
		if lastSavedAt.Valid {
			b.LastSavedAt = &lastSavedAt.Int64
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}

	return batches, nil
}

// SavePage upserts a page keyed by (batch_id, url) and maintains the owning
// batch's page_count and last_saved_at, all inside one transaction. Returns
// created=true when the URL was new to the batch. If the batch does not
// exist nothing is written.
func SavePage(ctx context.Context, db *sql.DB, p *archive.Page) (created bool, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewStorage(err)
	}
	defer tx.Rollback()

	// Reject before any write when the target batch is missing (no orphans).
	var batchExists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM batches WHERE id = ?`, p.BatchID).Scan(&batchExists)
	if err == sql.ErrNoRows {
		return false, errors.NewBatchNotFound(p.BatchID)
	}
	if err != nil {
		return false, errors.NewStorage(err)
	}

	var pageExists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM pages WHERE batch_id = ? AND url = ?`, p.BatchID, p.URL).Scan(&pageExists)
	if err != nil && err != sql.ErrNoRows {
		return false, errors.NewStorage(err)
	}
	created = err == sql.ErrNoRows

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (batch_id, url, site, params, html_content, retrieved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (batch_id, url) DO UPDATE SET
			site = excluded.site,
			params = excluded.params,
			html_content = excluded.html_content,
			retrieved_at = excluded.retrieved_at
	`, p.BatchID, p.URL, p.Site, p.Params, p.HTMLContent, p.RetrievedAt)
	if err != nil {
		return false, errors.NewStorage(err)
	}

	increment := 0
	if created {
		increment = 1
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE batches SET page_count = page_count + ?, last_saved_at = ?
		WHERE id = ?
	`, increment, time.Now().Unix(), p.BatchID)
	if err != nil {
		return false, errors.NewStorage(err)
	}

	if err := tx.Commit(); err != nil {
		return false, errors.NewStorage(err)
	}

	return created, nil
}

// DeleteBatchCascade removes a batch and every page it owns as one
// transaction. Returns the number of pages removed and whether the batch
// existed. A missing batch id deletes nothing and reports existed=false.
func DeleteBatchCascade(ctx context.Context, db *sql.DB, id string) (pagesDeleted int, existed bool, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, errors.NewStorage(err)
	}
	defer tx.Rollback()

	pageResult, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE batch_id = ?`, id)
	if err != nil {
		return 0, false, errors.NewStorage(err)
	}
	pageRows, err := pageResult.RowsAffected()
	if err != nil {
		return 0, false, errors.NewStorage(err)
	}

	batchResult, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return 0, false, errors.NewStorage(err)
	}
	batchRows, err := batchResult.RowsAffected()
	if err != nil {
		return 0, false, errors.NewStorage(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, errors.NewStorage(err)
	}

	return int(pageRows), batchRows > 0, nil
}

// CountPages returns the number of pages in one batch, or across all batches
// when batchID is nil. A non-existent batch id yields 0, not an error.
func CountPages(db *sql.DB, batchID *string) (int, error) {
	var (
		count int
		err   error
	)
	if batchID != nil {
		err = db.QueryRow(`SELECT COUNT(*) FROM pages WHERE batch_id = ?`, *batchID).Scan(&count)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&count)
	}
	if err != nil {
		return 0, errors.NewStorage(err)
	}
	return count, nil
}

// StreamPagesForExport returns a row cursor over a batch's pages for
// streaming export. Caller must close the rows.
func StreamPagesForExport(ctx context.Context, db *sql.DB, batchID string) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT batch_id, url, site, params, html_content, retrieved_at
		FROM pages
		WHERE batch_id = ?
	`, batchID)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	return rows, nil
}

// ScanPageFromRows scans the current row of a StreamPagesForExport cursor.
func ScanPageFromRows(rows *sql.Rows) (*archive.Page, error) {
	var p archive.Page
	if err := rows.Scan(&p.BatchID, &p.URL, &p.Site, &p.Params, &p.HTMLContent, &p.RetrievedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanBatch scans a single row into a Batch struct.
func scanBatch(row *sql.Row) (*archive.Batch, error) {
	var (
		b           archive.Batch
		lastSavedAt sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.NameRaw, &b.NameNorm, &b.PageCount, &b.CreatedAt, &lastSavedAt)
	if err != nil {
		return nil, err
	}
	if lastSavedAt.Valid {
		b.LastSavedAt = &lastSavedAt.Int64
	}
	return &b, nil
}

// InsertProspect appends a prospect unless its profile URL is already known.
// Returns added=false for duplicates.
func InsertProspect(db *sql.DB, p *archive.Prospect) (added bool, err error) {
	result, err := db.Exec(`
		INSERT OR IGNORE INTO prospects
			(profile_url, directory, business_name, rating, review_count, location_snippet, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ProfileURL, p.Directory, p.BusinessName, p.Rating, p.ReviewCount, p.LocationSnippet, p.AddedAt)
	if err != nil {
		return false, errors.NewStorage(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewStorage(err)
	}
	return rows > 0, nil
}

// AllProspects returns the entire ledger in arrival order.
func AllProspects(db *sql.DB) ([]archive.Prospect, error) {
	rows, err := db.Query(`
		SELECT profile_url, directory, business_name, rating, review_count, location_snippet, added_at
		FROM prospects
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	prospects := []archive.Prospect{}
	for rows.Next() {
		var p archive.Prospect
		if err := rows.Scan(&p.ProfileURL, &p.Directory, &p.BusinessName, &p.Rating,
			&p.ReviewCount, &p.LocationSnippet, &p.AddedAt); err != nil {
			return nil, errors.NewStorage(err)
		}
		prospects = append(prospects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}

	return prospects, nil
}

// ClearProspects empties the ledger and returns the number of rows removed.
func ClearProspects(db *sql.DB) (int, error) {
	result, err := db.Exec(`DELETE FROM prospects`)
	if err != nil {
		return 0, errors.NewStorage(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewStorage(err)
	}
	return int(rows), nil
}
