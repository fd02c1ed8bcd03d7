package services

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
	"growth-scraper/utils"
)

func sampleTable() models.CleanTable {
	return models.CleanTable{
		Columns: []string{"Produto", "Preco", "Desconto"},
		Records: []models.CleanRecord{
			{Product: "Whey X", Price: 100, Discount: 10, HasDiscount: true},
			{Product: "Creatina Y", Price: 120, Discount: 15, HasDiscount: true},
			{Product: "Barra Z", Price: 200},
			{Product: "", Price: 50},
		},
	}
}

func TestGenerateNullCounts(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	sum := svc.Generate(sampleTable())

	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, []models.NullCount{
		{Column: "Produto", Missing: 1},
		{Column: "Preco", Missing: 0},
		{Column: "Desconto", Missing: 2},
	}, sum.Nulls)
}

func TestGenerateDescribe(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	sum := svc.Generate(sampleTable())

	require.Len(t, sum.Describe, 2)

	price := sum.Describe[0]
	assert.Equal(t, "Preco", price.Column)
	assert.Equal(t, 4, price.Count)
	assert.InDelta(t, 117.5, price.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(11675.0/3), price.Std, 1e-9)
	assert.Equal(t, 50.0, price.Min)
	assert.InDelta(t, 87.5, price.Q1, 1e-9)
	assert.InDelta(t, 110.0, price.Median, 1e-9)
	assert.InDelta(t, 140.0, price.Q3, 1e-9)
	assert.Equal(t, 200.0, price.Max)

	discount := sum.Describe[1]
	assert.Equal(t, "Desconto", discount.Column)
	assert.Equal(t, 2, discount.Count)
	assert.InDelta(t, 12.5, discount.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(12.5), discount.Std, 1e-9)
	assert.InDelta(t, 11.25, discount.Q1, 1e-9)
}

func TestGenerateText(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	sum := svc.Generate(sampleTable())

	assert.Contains(t, sum.Text, "A coluna escolhida foi Preco.")
	assert.Contains(t, sum.Text, "A sua média é R$ 117.50.")
	assert.Contains(t, sum.Text, "E 50% dos dados vão até o valor R$ 110.00.")
	assert.Contains(t, sum.Text, "E seu máximo é de R$ 200.00.")
	assert.Contains(t, sum.Text, "O menor valor de Preco é R$ 50.00 Reais.")
}

func TestGenerateEmptyTable(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	sum := svc.Generate(models.CleanTable{Columns: []string{"Produto", "Preco", "Desconto"}})

	assert.Equal(t, 0, sum.Rows)
	assert.Empty(t, sum.Text)
	require.Len(t, sum.Describe, 2)
	assert.Equal(t, 0, sum.Describe[0].Count)
	assert.Zero(t, sum.Describe[0].Std)
}

func TestGenerateSingleRowStd(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	sum := svc.Generate(models.CleanTable{
		Columns: []string{"Produto", "Preco", "Desconto"},
		Records: []models.CleanRecord{{Product: "Whey X", Price: 99.9}},
	})

	assert.Equal(t, 1, sum.Describe[0].Count)
	assert.Zero(t, sum.Describe[0].Std)
	assert.Equal(t, 99.9, sum.Describe[0].Median)
}

func TestHistogram(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())

	h, err := svc.Histogram(sampleTable(), "preco", 0)
	require.NoError(t, err)
	assert.Equal(t, "Preco", h.Column)
	require.Len(t, h.Bins, 3)
	assert.Equal(t, []int{1, 2, 1}, []int{h.Bins[0].Count, h.Bins[1].Count, h.Bins[2].Count})
	assert.Equal(t, 50.0, h.Bins[0].Lower)
	assert.Equal(t, 200.0, h.Bins[2].Upper)
}

func TestHistogramSingleValue(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	tbl := models.CleanTable{
		Columns: []string{"Produto", "Preco", "Desconto"},
		Records: []models.CleanRecord{{Product: "A", Price: 10}, {Product: "B", Price: 10}},
	}

	h, err := svc.Histogram(tbl, "Preco", 5)
	require.NoError(t, err)
	require.Len(t, h.Bins, 1)
	assert.Equal(t, 2, h.Bins[0].Count)
}

func TestHistogramRejectsTextColumn(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())

	_, err := svc.Histogram(sampleTable(), "Produto", 0)
	require.Error(t, err)
	typ, ok := apperrors.TypeOf(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, typ)

	_, err = svc.Histogram(sampleTable(), "Estoque", 0)
	assert.Error(t, err)
}

func TestBoxPlotOutliers(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	tbl := models.CleanTable{Columns: []string{"Produto", "Preco", "Desconto"}}
	for _, p := range []float64{13, 10, 100, 12, 11} {
		tbl.Records = append(tbl.Records, models.CleanRecord{Product: "p", Price: p})
	}

	b, err := svc.BoxPlot(tbl, "Preco")
	require.NoError(t, err)
	assert.Equal(t, 5, b.SampleCount)
	assert.Equal(t, 11.0, b.Q1)
	assert.Equal(t, 12.0, b.Median)
	assert.Equal(t, 13.0, b.Q3)
	assert.Equal(t, 10.0, b.LowerWhisk)
	assert.Equal(t, 13.0, b.UpperWhisk)
	assert.Equal(t, []float64{100}, b.Outliers)
}

func TestScatter(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())

	sc, err := svc.Scatter(sampleTable(), []string{"Preco", "Desconto"})
	require.NoError(t, err)
	assert.Equal(t, "Preco", sc.X)
	assert.Equal(t, "Desconto", sc.Y)
	assert.Equal(t, []float64{100, 120}, sc.XVals)
	assert.Equal(t, []float64{10, 15}, sc.YVals)
	assert.Equal(t, []string{"Whey X", "Creatina Y"}, sc.Labels)
}

func TestScatterRequiresTwoNumericColumns(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())

	cases := [][]string{
		nil,
		{"Preco"},
		{"Preco", "Desconto", "Preco"},
		{"Preco", "Produto"},
	}
	for _, cols := range cases {
		_, err := svc.Scatter(sampleTable(), cols)
		require.Error(t, err, "columns %v", cols)
		typ, _ := apperrors.TypeOf(err)
		assert.Equal(t, apperrors.ErrorTypeValidation, typ)
	}
}

func TestPrint(t *testing.T) {
	svc := NewInsightService(utils.NewNopLogger())
	var buf bytes.Buffer

	svc.Print(&buf, svc.Generate(sampleTable()))

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "qtd_miss")
	assert.Contains(t, strings.ToLower(out), "desconto")
	assert.Contains(t, out, "117.50")
	assert.Contains(t, out, "A coluna escolhida foi Preco.")
}
