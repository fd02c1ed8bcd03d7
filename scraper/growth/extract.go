package growth

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"growth-scraper/config"
	"growth-scraper/models"
)

const reasonNoFields = "no fields matched"

// Extraction is the result of reading listing items out of a page.
type Extraction struct {
	Records []models.RawRecord
	Skipped []models.SkippedItem
	Matched int
	Partial int
}

// ExtractListings reads up to limit listing items from html. Items with
// only one field are kept with the other left empty; items with neither
// field are reported as skipped.
func ExtractListings(html string, sel config.Selectors, limit int) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse listing html: %w", err)
	}

	var ex Extraction
	doc.Find(sel.Item).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if limit > 0 && ex.Matched >= limit {
			return false
		}
		ex.Matched++

		name := renderedText(item.Find(sel.Name).First())
		price := renderedText(item.Find(sel.Price).First())

		switch {
		case name == "" && price == "":
			ex.Skipped = append(ex.Skipped, models.SkippedItem{Index: i, Reason: reasonNoFields})
			return true
		case name == "" || price == "":
			ex.Partial++
		}

		ex.Records = append(ex.Records, models.RawRecord{Product: name, PriceText: price})
		return true
	})

	return ex, nil
}

// FailureRate is the share of matched items that lacked at least one field.
func (e Extraction) FailureRate() float64 {
	if e.Matched == 0 {
		return 0
	}
	return float64(len(e.Skipped)+e.Partial) / float64(e.Matched)
}

// renderedText approximates what a browser shows for a node: text
// nodes joined, whitespace runs collapsed to one space.
func renderedText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}
