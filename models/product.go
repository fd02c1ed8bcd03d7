package models

import "time"

// RawRecord holds the unprocessed text scraped for one listing item.
// An empty field means the selector did not match anything on the page.
type RawRecord struct {
	Product   string
	PriceText string
}

// CleanRecord is a raw record whose price text parsed into a number.
type CleanRecord struct {
	Product     string
	Price       float64
	Discount    int
	HasDiscount bool
}

// Working column keys of the clean table. The normalizer title-cases them
// into the display headers written to the clean store.
const (
	KeyProduct  = "produto"
	KeyPrice    = "preco"
	KeyDiscount = "desconto"
)

// CleanTable is the clean store content: display column names plus rows.
type CleanTable struct {
	Columns []string
	Records []CleanRecord
}

// CollectStatus tells callers why a collection run returned what it did.
type CollectStatus string

const (
	CollectOK       CollectStatus = "ok"
	CollectEmpty    CollectStatus = "empty"
	CollectDegraded CollectStatus = "degraded"
	CollectFailed   CollectStatus = "failed"
)

// SkippedItem records a listing element that produced no usable field.
type SkippedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// CollectResult is the outcome of one collection run.
type CollectResult struct {
	RunID      string
	Status     CollectStatus
	Records    []RawRecord
	Skipped    []SkippedItem
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NormalizeReport carries the aggregate counts of a normalizer pass.
type NormalizeReport struct {
	Input      int `json:"input"`
	Unparsable int `json:"unparsable"`
	Duplicates int `json:"duplicates"`
	Output     int `json:"output"`
}

// RunSummary describes the last pipeline run, as shown by the dashboard.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	Collect    CollectStatus   `json:"collect_status,omitempty"`
	Skipped    int             `json:"skipped_items"`
	Normalize  NormalizeReport `json:"normalize"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// ColumnStats mirrors a describe() row for one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q25"`
	Median float64 `json:"q50"`
	Q3     float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// NullCount is the number of missing values in one column.
type NullCount struct {
	Column  string `json:"variavel"`
	Missing int    `json:"qtd_miss"`
}

// Summary holds the descriptive statistics over the clean table.
type Summary struct {
	Rows     int           `json:"rows"`
	Columns  []string      `json:"columns"`
	Nulls    []NullCount   `json:"nulls"`
	Describe []ColumnStats `json:"describe"`
	Text     string        `json:"text,omitempty"`
}

// HistogramBin is one bucket of a distribution histogram.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the distribution of a numeric column.
type Histogram struct {
	Column string         `json:"column"`
	Bins   []HistogramBin `json:"bins"`
}

// BoxPlot holds the five-number summary plus outliers for a column.
type BoxPlot struct {
	Column      string    `json:"column"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	LowerWhisk  float64   `json:"lower_whisker"`
	UpperWhisk  float64   `json:"upper_whisker"`
	Outliers    []float64 `json:"outliers"`
	SampleCount int       `json:"n"`
}

// Scatter pairs two numeric columns row by row.
type Scatter struct {
	X      string    `json:"x"`
	Y      string    `json:"y"`
	XVals  []float64 `json:"x_values"`
	YVals  []float64 `json:"y_values"`
	Labels []string  `json:"labels"`
}
