package archive

// Batch represents a named grouping of archived pages.
type Batch struct {
	// ID is a ULID that uniquely identifies this batch
	ID string

	// NameRaw is the batch name as provided by the user
	NameRaw string

	// NameNorm is the normalized name used for case-insensitive uniqueness
	NameNorm string

	// PageCount is the number of distinct page URLs currently in this batch.
	// Maintained incrementally; always equals the pages table count for this
	// batch between operations.
	PageCount int

	// CreatedAt is the Unix timestamp when the batch was created
	CreatedAt int64

	// LastSavedAt is the Unix timestamp of the most recent page save into
	// this batch (nullable; nil until the first save)
	LastSavedAt *int64
}

// Page represents one captured HTML snapshot, scoped to its owning batch.
// Pages are keyed by (BatchID, URL): the same URL may be archived into
// several batches independently.
type Page struct {
	// BatchID references the owning batch
	BatchID string

	// URL is the address the snapshot was captured from
	URL string

	// Site is the URL's hostname, derived once at save time
	Site string

	// Params is the URL's raw query string, derived once at save time
	Params string

	// HTMLContent is the full captured document markup, opaque
	HTMLContent string

	// RetrievedAt is the Unix timestamp of capture
	RetrievedAt int64
}

// PageExportRecord is the JSONL line shape for batch exports.
type PageExportRecord struct {
	URL         string `json:"url"`
	BatchID     string `json:"batch_id"`
	Site        string `json:"site"`
	Params      string `json:"params"`
	HTMLContent string `json:"html_content"`
	RetrievedAt int64  `json:"retrieved_at"`
}

// PageToExportRecord maps a stored page onto its export line.
func PageToExportRecord(p *Page) PageExportRecord {
	return PageExportRecord{
		URL:         p.URL,
		BatchID:     p.BatchID,
		Site:        p.Site,
		Params:      p.Params,
		HTMLContent: p.HTMLContent,
		RetrievedAt: p.RetrievedAt,
	}
}

// Prospect represents one extracted business listing from a directory
// search-result page. ProfileURL is the dedupe key.
type Prospect struct {
	ProfileURL      string `json:"directory_profile_url"`
	Directory       string `json:"directory"`
	BusinessName    string `json:"business_name"`
	Rating          string `json:"rating"`
	ReviewCount     string `json:"review_count"`
	LocationSnippet string `json:"location_snippet"`

	// AddedAt is the Unix timestamp when the prospect entered the ledger
	AddedAt int64 `json:"added_at"`
}
