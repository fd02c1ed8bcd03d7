package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
	"growth-scraper/utils"
)

// SummaryColumn is the column the text summary describes.
const SummaryColumn = "Preco"

// InsightService computes descriptive statistics and chart series over
// the clean table.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// column is one resolved clean-table column.
type column struct {
	name    string
	key     string
	numeric bool
}

func resolveColumns(t models.CleanTable) []column {
	cols := make([]column, 0, len(t.Columns))
	for _, name := range t.Columns {
		key := strings.ToLower(name)
		switch key {
		case models.KeyProduct:
			cols = append(cols, column{name: name, key: key})
		case models.KeyPrice, models.KeyDiscount:
			cols = append(cols, column{name: name, key: key, numeric: true})
		}
	}
	return cols
}

func findColumn(t models.CleanTable, name string) (column, bool) {
	for _, c := range resolveColumns(t) {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
	}
	return column{}, false
}

// numericColumn resolves name and rejects unknown or text columns.
func numericColumn(t models.CleanTable, stage, name string) (column, error) {
	c, ok := findColumn(t, name)
	if !ok {
		return column{}, apperrors.NewValidation(stage, fmt.Sprintf("unknown column %q", name))
	}
	if !c.numeric {
		return column{}, apperrors.NewValidation(stage, fmt.Sprintf("column %q is not numeric", c.name))
	}
	return c, nil
}

// value returns the numeric value of key in r; ok is false when missing.
func value(r models.CleanRecord, key string) (float64, bool) {
	switch key {
	case models.KeyPrice:
		return r.Price, true
	case models.KeyDiscount:
		return float64(r.Discount), r.HasDiscount
	}
	return 0, false
}

func values(t models.CleanTable, key string) []float64 {
	out := make([]float64, 0, len(t.Records))
	for _, r := range t.Records {
		if v, ok := value(r, key); ok {
			out = append(out, v)
		}
	}
	return out
}

// Generate builds the null counts, the describe table over numeric
// columns and the text summary of the price column.
func (s *InsightService) Generate(t models.CleanTable) models.Summary {
	sum := models.Summary{
		Rows:    len(t.Records),
		Columns: append([]string(nil), t.Columns...),
	}

	for _, c := range resolveColumns(t) {
		missing := 0
		for _, r := range t.Records {
			switch {
			case c.key == models.KeyProduct && r.Product == "":
				missing++
			case c.key == models.KeyDiscount && !r.HasDiscount:
				missing++
			}
		}
		sum.Nulls = append(sum.Nulls, models.NullCount{Column: c.name, Missing: missing})

		if c.numeric {
			sum.Describe = append(sum.Describe, describe(c.name, values(t, c.key)))
		}
	}

	for _, st := range sum.Describe {
		if strings.EqualFold(st.Column, SummaryColumn) && st.Count > 0 {
			sum.Text = summaryText(st)
		}
	}

	if s.logger != nil {
		s.logger.Debug("[insights] Summarized %d rows over %d columns", sum.Rows, len(sum.Columns))
	}
	return sum
}

func summaryText(st models.ColumnStats) string {
	return fmt.Sprintf("A coluna escolhida foi %s. A sua média é R$ %.2f. "+
		"Seu desvio padrão indica que, quando há desvio, desvia em média R$ %.2f. "+
		"E 50%% dos dados vão até o valor R$ %.2f. E seu máximo é de R$ %.2f. "+
		"O menor valor de %s é R$ %.2f Reais.",
		st.Column, round2(st.Mean), round2(st.Std), round2(st.Median), round2(st.Max),
		st.Column, st.Min)
}

// describe computes count, mean, sample standard deviation and linearly
// interpolated quartiles. Std is 0 below two observations.
func describe(name string, vals []float64) models.ColumnStats {
	st := models.ColumnStats{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		return st
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	st.Mean = total / float64(len(sorted))

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - st.Mean) * (v - st.Mean)
		}
		st.Std = math.Sqrt(sq / float64(len(sorted)-1))
	}

	st.Min = sorted[0]
	st.Max = sorted[len(sorted)-1]
	st.Q1 = quantile(sorted, 0.25)
	st.Median = quantile(sorted, 0.5)
	st.Q3 = quantile(sorted, 0.75)
	return st
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Histogram splits a numeric column into equal-width bins. bins <= 0
// picks a bin count with Sturges' rule.
func (s *InsightService) Histogram(t models.CleanTable, name string, bins int) (models.Histogram, error) {
	c, err := numericColumn(t, "histogram", name)
	if err != nil {
		return models.Histogram{}, err
	}

	vals := values(t, c.key)
	h := models.Histogram{Column: c.name, Bins: []models.HistogramBin{}}
	if len(vals) == 0 {
		return h, nil
	}
	if bins <= 0 {
		bins = int(math.Ceil(math.Log2(float64(len(vals))))) + 1
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		h.Bins = append(h.Bins, models.HistogramBin{Lower: lo, Upper: hi, Count: len(vals)})
		return h, nil
	}

	width := (hi - lo) / float64(bins)
	h.Bins = make([]models.HistogramBin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = lo + float64(i)*width
		h.Bins[i].Upper = lo + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = hi

	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Bins[i].Count++
	}
	return h, nil
}

// BoxPlot computes quartiles, 1.5 IQR whiskers and the outliers beyond them.
func (s *InsightService) BoxPlot(t models.CleanTable, name string) (models.BoxPlot, error) {
	c, err := numericColumn(t, "boxplot", name)
	if err != nil {
		return models.BoxPlot{}, err
	}

	vals := values(t, c.key)
	b := models.BoxPlot{Column: c.name, SampleCount: len(vals), Outliers: []float64{}}
	if len(vals) == 0 {
		return b, nil
	}

	sort.Float64s(vals)
	b.Q1 = quantile(vals, 0.25)
	b.Median = quantile(vals, 0.5)
	b.Q3 = quantile(vals, 0.75)

	iqr := b.Q3 - b.Q1
	lowFence := b.Q1 - 1.5*iqr
	highFence := b.Q3 + 1.5*iqr

	b.LowerWhisk = b.Q1
	b.UpperWhisk = b.Q3
	for _, v := range vals {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		b.LowerWhisk = math.Min(b.LowerWhisk, v)
		b.UpperWhisk = math.Max(b.UpperWhisk, v)
	}
	return b, nil
}

// Scatter pairs exactly two numeric columns. Rows missing either value
// are left out.
func (s *InsightService) Scatter(t models.CleanTable, names []string) (models.Scatter, error) {
	if len(names) != 2 {
		return models.Scatter{}, apperrors.NewValidation("scatter",
			fmt.Sprintf("choose exactly 2 numeric columns, got %d", len(names)))
	}
	x, err := numericColumn(t, "scatter", names[0])
	if err != nil {
		return models.Scatter{}, err
	}
	y, err := numericColumn(t, "scatter", names[1])
	if err != nil {
		return models.Scatter{}, err
	}

	sc := models.Scatter{X: x.name, Y: y.name, XVals: []float64{}, YVals: []float64{}, Labels: []string{}}
	for _, r := range t.Records {
		xv, okX := value(r, x.key)
		yv, okY := value(r, y.key)
		if !okX || !okY {
			continue
		}
		sc.XVals = append(sc.XVals, xv)
		sc.YVals = append(sc.YVals, yv)
		sc.Labels = append(sc.Labels, r.Product)
	}
	return sc, nil
}

// Print renders the summary as terminal tables.
func (s *InsightService) Print(w io.Writer, sum models.Summary) {
	sep := strings.Repeat("═", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 GROWTH PRODUCT INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "  Rows : \033[1m%d\033[0m\n\n", sum.Rows)

	nulls := table.NewWriter()
	nulls.SetOutputMirror(w)
	nulls.SetTitle("Análise de Nulos")
	nulls.AppendHeader(table.Row{"Variavel", "Qtd_Miss"})
	for _, n := range sum.Nulls {
		nulls.AppendRow(table.Row{n.Column, n.Missing})
	}
	nulls.SetStyle(table.StyleLight)
	nulls.Render()
	fmt.Fprintln(w)

	desc := table.NewWriter()
	desc.SetOutputMirror(w)
	desc.SetTitle("Medidas resumo")
	header := table.Row{""}
	for _, st := range sum.Describe {
		header = append(header, st.Column)
	}
	desc.AppendHeader(header)
	rows := []struct {
		label string
		get   func(models.ColumnStats) any
	}{
		{"count", func(st models.ColumnStats) any { return st.Count }},
		{"mean", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Mean) }},
		{"std", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Std) }},
		{"min", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Min) }},
		{"25%", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Q1) }},
		{"50%", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Median) }},
		{"75%", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Q3) }},
		{"max", func(st models.ColumnStats) any { return fmt.Sprintf("%.2f", st.Max) }},
	}
	for _, r := range rows {
		row := table.Row{r.label}
		for _, st := range sum.Describe {
			row = append(row, r.get(st))
		}
		desc.AppendRow(row)
	}
	desc.SetStyle(table.StyleLight)
	desc.Render()

	if sum.Text != "" {
		fmt.Fprintf(w, "\n  %s\n", sum.Text)
	} else {
		fmt.Fprintf(w, "\n  No price data available\n")
	}
	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
