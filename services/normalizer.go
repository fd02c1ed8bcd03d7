package services

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"growth-scraper/models"
	"growth-scraper/storage"
	"growth-scraper/utils"
)

// priceRegexp captures a BRL amount ("R$ 1.234,56") and an optional
// trailing discount percentage ("10%").
var priceRegexp = regexp.MustCompile(`R\$\s?([\d.,]+)(?:\s+(\d+)%)?`)

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// PriceParse is the structured form of a scraped price string.
type PriceParse struct {
	Price       float64
	Discount    int
	HasDiscount bool
}

// PriceResult is one index-aligned entry of ParsePrices.
// OK is false when no price could be extracted.
type PriceResult struct {
	PriceParse
	OK bool
}

// ParsePrice extracts the numeric price and discount from text such as
// "R$ 123,45 10%" or "R$ 1.234,56". It never panics; unusable input
// returns ok == false.
func ParsePrice(text string) (PriceParse, bool) {
	text = NormalizeWhitespace(text)
	if text == "" {
		return PriceParse{}, false
	}

	m := priceRegexp.FindStringSubmatch(text)
	if m == nil {
		return PriceParse{}, false
	}

	price, ok := parseLocaleNumber(m[1])
	if !ok {
		return PriceParse{}, false
	}

	p := PriceParse{Price: price}
	if m[2] != "" {
		if d, err := strconv.Atoi(m[2]); err == nil {
			p.Discount = d
			p.HasDiscount = true
		}
	}
	return p, true
}

// ParsePrices applies ParsePrice to every entry, keeping input order.
func ParsePrices(texts []string) []PriceResult {
	out := make([]PriceResult, len(texts))
	for i, t := range texts {
		p, ok := ParsePrice(t)
		out[i] = PriceResult{PriceParse: p, OK: ok}
	}
	return out
}

// NormalizeWhitespace turns embedded line breaks into single spaces and
// trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(newlineReplacer.Replace(s))
}

// parseLocaleNumber converts "1.234,56" into 1234.56. Only finite,
// non-negative values are accepted.
func parseLocaleNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

// DisplayColumns title-cases the working column keys into the headers
// written to the clean store.
func DisplayColumns(keys ...string) []string {
	caser := cases.Title(language.BrazilianPortuguese)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = caser.String(strings.ToLower(k))
	}
	return out
}

// Normalizer turns raw records into the clean table.
type Normalizer struct {
	raw     storage.RawStore
	clean   storage.CleanStore
	mirror  storage.CleanMirror
	metrics *utils.Metrics
	logger  *utils.Logger
}

// NewNormalizer creates a Normalizer. mirror and metrics may be nil.
func NewNormalizer(raw storage.RawStore, clean storage.CleanStore, mirror storage.CleanMirror,
	metrics *utils.Metrics, logger *utils.Logger) *Normalizer {
	return &Normalizer{raw: raw, clean: clean, mirror: mirror, metrics: metrics, logger: logger}
}

// Normalize parses every raw record, drops unparsable rows and exact
// duplicates (first occurrence wins) and keeps the relative order of the
// rest. Per-row failures are only counted.
func (n *Normalizer) Normalize(raw []models.RawRecord) (models.CleanTable, models.NormalizeReport) {
	report := models.NormalizeReport{Input: len(raw)}
	seen := utils.NewKeySet()
	seenClean := utils.NewKeySet()
	table := models.CleanTable{
		Columns: DisplayColumns(models.KeyProduct, models.KeyPrice, models.KeyDiscount),
		Records: make([]models.CleanRecord, 0, len(raw)),
	}

	for _, r := range raw {
		product := normaliseText(r.Product)
		priceText := NormalizeWhitespace(r.PriceText)

		p, ok := ParsePrice(priceText)
		if !ok {
			report.Unparsable++
			if n.logger != nil {
				n.logger.Debug("[normalizer] Unparsable price %q for %q", priceText, product)
			}
			continue
		}

		if !seen.Add(product + "\x00" + priceText) {
			report.Duplicates++
			continue
		}

		rec := models.CleanRecord{
			Product:     product,
			Price:       p.Price,
			Discount:    p.Discount,
			HasDiscount: p.HasDiscount,
		}
		// Different price texts can still parse to the same clean row.
		if !seenClean.Add(cleanKey(rec)) {
			report.Duplicates++
			continue
		}

		table.Records = append(table.Records, rec)
	}

	report.Output = len(table.Records)
	if n.logger != nil {
		n.logger.Info("[normalizer] Normalized %d → %d rows (unparsable %d, duplicates %d)",
			report.Input, report.Output, report.Unparsable, report.Duplicates)
	}
	return table, report
}

// Run reads the raw store, normalizes it and replaces the clean store.
// It fails only when the raw table is absent or unreadable, or when the
// clean table cannot be written.
func (n *Normalizer) Run(ctx context.Context) (models.CleanTable, models.NormalizeReport, error) {
	raw, err := n.raw.ReadRaw()
	if err != nil {
		return models.CleanTable{}, models.NormalizeReport{}, err
	}

	table, report := n.Normalize(raw)
	if err := n.clean.WriteClean(table); err != nil {
		return models.CleanTable{}, report, err
	}

	if n.metrics != nil {
		n.metrics.RowsDropped.WithLabelValues("unparsable").Add(float64(report.Unparsable))
		n.metrics.RowsDropped.WithLabelValues("duplicate").Add(float64(report.Duplicates))
		n.metrics.CleanRows.Set(float64(report.Output))
	}

	if report.Input > 0 && report.Output == 0 && n.logger != nil {
		n.logger.Warn("[normalizer] Every one of %d raw rows was dropped; the price markup may have changed",
			report.Input)
	}

	if n.mirror != nil {
		if err := n.mirror.Write(ctx, table); err != nil && n.logger != nil {
			n.logger.Error("[normalizer] Mirror write failed: %v", err)
		}
	}

	return table, report, nil
}

// cleanKey identifies a clean row by its stored representation.
func cleanKey(r models.CleanRecord) string {
	discount := ""
	if r.HasDiscount {
		discount = strconv.Itoa(r.Discount)
	}
	return r.Product + "\x00" + storage.FormatPrice(r.Price) + "\x00" + discount
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
