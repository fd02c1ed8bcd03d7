package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
)

// ErrNoData is returned when a slot has never been written.
var ErrNoData = errors.New("storage: no data yet")

const separator = ';'

// Raw table header names. The Portuguese names are accepted on read so
// files produced by earlier collectors stay readable.
var (
	rawHeader      = []string{"product", "price_text"}
	productAliases = []string{"product", "produto"}
	priceAliases   = []string{"price_text", "precos"}
)

// CSVStore keeps the raw and clean tables as semicolon-separated files.
// Each slot is overwritten on every write and has its own writer lock.
type CSVStore struct {
	rawPath   string
	cleanPath string

	rawMu   sync.Mutex
	cleanMu sync.Mutex
}

// NewCSVStore returns a store for the two slot paths. Files and
// directories are created lazily on first write.
func NewCSVStore(rawPath, cleanPath string) *CSVStore {
	return &CSVStore{rawPath: rawPath, cleanPath: cleanPath}
}

// RawPath returns the raw slot file path.
func (s *CSVStore) RawPath() string { return s.rawPath }

// CleanPath returns the clean slot file path.
func (s *CSVStore) CleanPath() string { return s.cleanPath }

// WriteRaw replaces the raw slot with records.
func (s *CSVStore) WriteRaw(records []models.RawRecord) error {
	s.rawMu.Lock()
	defer s.rawMu.Unlock()

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, rawHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Product, r.PriceText})
	}
	if err := writeAtomic(s.rawPath, rows); err != nil {
		return apperrors.NewStoreWrite("raw", "write raw table", err)
	}
	return nil
}

// ReadRaw loads the raw slot. It returns ErrNoData when the file is absent
// and a parsing error when the header lacks the product or price column.
func (s *CSVStore) ReadRaw() ([]models.RawRecord, error) {
	s.rawMu.Lock()
	defer s.rawMu.Unlock()

	rows, err := readAll(s.rawPath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsing("raw", "file has no header row", nil)
	}

	productIdx := columnIndex(rows[0], productAliases...)
	priceIdx := columnIndex(rows[0], priceAliases...)
	if productIdx < 0 || priceIdx < 0 {
		return nil, apperrors.NewParsing("raw",
			fmt.Sprintf("header %v lacks product/price_text columns", rows[0]), nil)
	}

	records := make([]models.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, models.RawRecord{
			Product:   cell(row, productIdx),
			PriceText: cell(row, priceIdx),
		})
	}
	return records, nil
}

// WriteClean replaces the clean slot with table.
func (s *CSVStore) WriteClean(table models.CleanTable) error {
	s.cleanMu.Lock()
	defer s.cleanMu.Unlock()

	if len(table.Columns) < 2 {
		return apperrors.NewStoreWrite("clean", fmt.Sprintf("need at least 2 columns, got %v", table.Columns), nil)
	}
	withDiscount := len(table.Columns) > 2

	rows := make([][]string, 0, len(table.Records)+1)
	rows = append(rows, table.Columns)
	for _, r := range table.Records {
		row := []string{r.Product, FormatPrice(r.Price)}
		if withDiscount {
			d := ""
			if r.HasDiscount {
				d = strconv.Itoa(r.Discount)
			}
			row = append(row, d)
		}
		rows = append(rows, row)
	}
	if err := writeAtomic(s.cleanPath, rows); err != nil {
		return apperrors.NewStoreWrite("clean", "write clean table", err)
	}
	return nil
}

// ReadClean loads the clean slot. Cells that do not parse as numbers are
// read as missing values.
func (s *CSVStore) ReadClean() (models.CleanTable, error) {
	s.cleanMu.Lock()
	defer s.cleanMu.Unlock()

	rows, err := readAll(s.cleanPath)
	if err != nil {
		return models.CleanTable{}, err
	}
	if len(rows) == 0 {
		return models.CleanTable{}, apperrors.NewParsing("clean", "file has no header row", nil)
	}

	header := rows[0]
	productIdx := columnIndex(header, models.KeyProduct)
	priceIdx := columnIndex(header, models.KeyPrice)
	discountIdx := columnIndex(header, models.KeyDiscount)
	if productIdx < 0 || priceIdx < 0 {
		return models.CleanTable{}, apperrors.NewParsing("clean",
			fmt.Sprintf("header %v lacks %s/%s columns", header, models.KeyProduct, models.KeyPrice), nil)
	}

	table := models.CleanTable{Columns: header, Records: make([]models.CleanRecord, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		price, err := strconv.ParseFloat(cell(row, priceIdx), 64)
		if err != nil {
			continue
		}
		rec := models.CleanRecord{Product: cell(row, productIdx), Price: price}
		if discountIdx >= 0 {
			if d, err := strconv.Atoi(cell(row, discountIdx)); err == nil {
				rec.Discount = d
				rec.HasDiscount = true
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// FormatPrice renders a price the way it is stored in the clean table.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

const filePerm os.FileMode = 0o644

func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp uses 0600, which would survive the rename.
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	w := csv.NewWriter(tmp)
	w.Comma = separator
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewStoreRead(filepath.Base(path), "file absent", ErrNoData)
		}
		return nil, apperrors.NewStoreRead(filepath.Base(path), "open file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = separator
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewParsing(filepath.Base(path), "read csv", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func columnIndex(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(h), n) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
