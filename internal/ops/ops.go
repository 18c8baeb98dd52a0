// Package ops implements the archive store and prospect ledger operations.
// Every operation validates its input, runs against the shared *sql.DB
// handle, and returns a typed output or an *errors.ArchiveError. No state is
// kept between calls.
package ops

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/thedatadavis/webgrab/internal/archive"
	"github.com/thedatadavis/webgrab/internal/extract"
)

// Prospect field defaults applied when a record carries no value and the
// extraction config supplied none either.
const (
	DefaultBusinessName = "Unknown Business"
	DefaultRating       = "N/A"
	DefaultReviewCount  = "0"
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ProspectFromRecord maps an extracted record onto a ledger entry, filling
// per-field defaults. The profile URL may be empty; the ledger append drops
// such records.
func ProspectFromRecord(rec extract.Record, now int64) archive.Prospect {
	p := archive.Prospect{
		ProfileURL:      rec["profile_url"],
		Directory:       rec[extract.SourceField],
		BusinessName:    rec["business_name"],
		Rating:          rec["rating"],
		ReviewCount:     rec["review_count"],
		LocationSnippet: rec["location_snippet"],
		AddedAt:         now,
	}
	if p.BusinessName == "" {
		p.BusinessName = DefaultBusinessName
	}
	if p.Rating == "" {
		p.Rating = DefaultRating
	}
	if p.ReviewCount == "" {
		p.ReviewCount = DefaultReviewCount
	}
	return p
}
