package extract

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// SourceField is the injected field naming the configuration a record came from.
const SourceField = "directory"

// Record is one flat extracted listing.
type Record map[string]string

// Extract walks every element matched by cfg.ListingContainer in document
// order and applies the configured field rules to each. The document is
// never mutated and no network access happens. Zero matched containers is
// not an error; the result is simply empty.
func Extract(cfg SiteConfig, r io.Reader) ([]Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	_, _ = io.Copy(buf, r)
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, "")
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return nil, err
	}

	records := []Record{}
	doc.Find(cfg.ListingContainer).Each(func(i int, container *goquery.Selection) {
		rec := Record{SourceField: cfg.Name}
		for field, rule := range cfg.Fields {
			rec[field] = extractField(container, rule)
		}
		records = append(records, rec)
	})

	return records, nil
}

// extractField applies one rule within a container.
func extractField(container *goquery.Selection, rule FieldRule) string {
	el := container.Find(rule.Selector).First()
	if el.Length() == 0 {
		return rule.DefaultValue
	}

	var value string
	if rule.Attribute != "" {
		value = el.AttrOr(rule.Attribute, "")
	} else {
		value = el.Text()
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return rule.DefaultValue
	}
	if rule.Prefix != "" {
		value = rule.Prefix + value
	}
	return value
}
