package ops

import (
	"context"
	"testing"

	"github.com/thedatadavis/webgrab/internal/db"
	"github.com/thedatadavis/webgrab/internal/errors"
)

const serpHTML = `
<html><body>
  <div class="result">
    <a class="business-name" href="/biz/acme">Acme Plumbing</a>
    <div class="ratings" data-rating="4.5"></div>
  </div>
  <div class="result">
    <a class="business-name" href="/biz/budget">Budget Drains</a>
  </div>
</body></html>`

func TestExtractAndRecord(t *testing.T) {
	database := testDB(t)

	out, err := ExtractAndRecord(context.Background(), database, testConfigs(), ExtractAndRecordInput{
		Directory:   "yellowpages",
		HTMLContent: serpHTML,
	})
	if err != nil {
		t.Fatalf("ExtractAndRecord failed: %v", err)
	}
	if out.Matched != 2 {
		t.Errorf("matched = %d", out.Matched)
	}
	if out.Added != 2 {
		t.Errorf("added = %d", out.Added)
	}

	prospects, err := db.AllProspects(database)
	if err != nil {
		t.Fatalf("AllProspects failed: %v", err)
	}
	if len(prospects) != 2 {
		t.Fatalf("ledger has %d prospects", len(prospects))
	}
	if prospects[0].BusinessName != "Acme Plumbing" {
		t.Errorf("business name = %q", prospects[0].BusinessName)
	}
	if prospects[0].ProfileURL != "https://www.yellowpages.com/biz/acme" {
		t.Errorf("profile url = %q", prospects[0].ProfileURL)
	}
	if prospects[1].Rating != "N/A" {
		t.Errorf("expected config default rating, got %q", prospects[1].Rating)
	}
}

func TestExtractAndRecordRepeatIsIdempotent(t *testing.T) {
	database := testDB(t)
	input := ExtractAndRecordInput{Directory: "yellowpages", HTMLContent: serpHTML}

	if _, err := ExtractAndRecord(context.Background(), database, testConfigs(), input); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	out, err := ExtractAndRecord(context.Background(), database, testConfigs(), input)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if out.Matched != 2 || out.Added != 0 {
		t.Errorf("expected matched=2 added=0, got %+v", out)
	}
}

func TestExtractAndRecordNoListings(t *testing.T) {
	database := testDB(t)

	out, err := ExtractAndRecord(context.Background(), database, testConfigs(), ExtractAndRecordInput{
		Directory:   "yellowpages",
		HTMLContent: "<html><body><p>no results</p></body></html>",
	})
	if err != nil {
		t.Fatalf("zero listings should not error: %v", err)
	}
	if out.Matched != 0 || out.Added != 0 {
		t.Errorf("expected zeroes, got %+v", out)
	}
}

func TestExtractAndRecordValidation(t *testing.T) {
	database := testDB(t)

	_, err := ExtractAndRecord(context.Background(), database, testConfigs(), ExtractAndRecordInput{
		Directory: "unknown", HTMLContent: serpHTML,
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown directory: expected INVALID_REQUEST, got %v", err)
	}

	_, err = ExtractAndRecord(context.Background(), database, testConfigs(), ExtractAndRecordInput{
		Directory: "yellowpages", HTMLContent: "",
	})
	if !errors.Is(err, errors.ErrPageRetrieval) {
		t.Errorf("missing html: expected PAGE_RETRIEVAL_FAILED, got %v", err)
	}
}
