package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growth-scraper/models"
	apperrors "growth-scraper/pkg/errors"
)

func newTestStore(t *testing.T) *CSVStore {
	t.Helper()
	dir := t.TempDir()
	return NewCSVStore(
		filepath.Join(dir, "basesoriginais", "Growth_dados.csv"),
		filepath.Join(dir, "basestratadas", "Growth_dados.csv"),
	)
}

func TestRawRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := []models.RawRecord{
		{Product: "Whey X", PriceText: "R$ 120,00 15%"},
		{Product: "Creatina Y", PriceText: ""},
		{Product: "", PriceText: "R$\n50,00"},
	}

	require.NoError(t, s.WriteRaw(in))

	data, err := os.ReadFile(s.RawPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "product;price_text\n")
	assert.Contains(t, string(data), "Whey X;R$ 120,00 15%\n")

	out, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRawOverwrite(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw([]models.RawRecord{{Product: "A", PriceText: "R$ 1,00"}, {Product: "B"}}))
	require.NoError(t, s.WriteRaw([]models.RawRecord{{Product: "C", PriceText: "R$ 2,00"}}))

	out, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, []models.RawRecord{{Product: "C", PriceText: "R$ 2,00"}}, out)
}

func TestWrittenFilesAreWorldReadable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw([]models.RawRecord{{Product: "A", PriceText: "R$ 1,00"}}))
	require.NoError(t, s.WriteClean(models.CleanTable{
		Columns: []string{"Produto", "Preco", "Desconto"},
		Records: []models.CleanRecord{{Product: "A", Price: 1}},
	}))

	for _, path := range []string{s.RawPath(), s.CleanPath()} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), path)
	}
}

func TestReadRawAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadRaw()
	assert.True(t, errors.Is(err, ErrNoData))

	typ, ok := apperrors.TypeOf(err)
	assert.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeStoreRead, typ)
}

func TestReadRawEmptyTable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteRaw(nil))

	out, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadRawLegacyHeader(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.RawPath()), 0o755))
	require.NoError(t, os.WriteFile(s.RawPath(),
		[]byte("produto;precos\nWhey X;\"R$ 120,00\n15%\"\nSó nome\n"), 0o644))

	out, err := s.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, []models.RawRecord{
		{Product: "Whey X", PriceText: "R$ 120,00\n15%"},
		{Product: "Só nome", PriceText: ""},
	}, out)
}

func TestReadRawBadHeader(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.RawPath()), 0o755))
	require.NoError(t, os.WriteFile(s.RawPath(), []byte("name;value\nA;1\n"), 0o644))

	_, err := s.ReadRaw()
	require.Error(t, err)
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrorTypeParsing, typ)

	require.NoError(t, os.WriteFile(s.RawPath(), nil, 0o644))
	_, err = s.ReadRaw()
	assert.Error(t, err)
}

func TestCleanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := models.CleanTable{
		Columns: []string{"Produto", "Preco", "Desconto"},
		Records: []models.CleanRecord{
			{Product: "Whey X", Price: 120, Discount: 15, HasDiscount: true},
			{Product: "Barra Z", Price: 1234.56},
		},
	}
	require.NoError(t, s.WriteClean(in))

	data, err := os.ReadFile(s.CleanPath())
	require.NoError(t, err)
	assert.Equal(t, "Produto;Preco;Desconto\nWhey X;120.00;15\nBarra Z;1234.56;\n", string(data))

	out, err := s.ReadClean()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCleanWithoutDiscountColumn(t *testing.T) {
	s := newTestStore(t)
	in := models.CleanTable{
		Columns: []string{"Produto", "Preco"},
		Records: []models.CleanRecord{{Product: "A", Price: 9.9}},
	}
	require.NoError(t, s.WriteClean(in))

	data, err := os.ReadFile(s.CleanPath())
	require.NoError(t, err)
	assert.Equal(t, "Produto;Preco\nA;9.90\n", string(data))
}

func TestWriteCleanRejectsNarrowTable(t *testing.T) {
	s := newTestStore(t)
	err := s.WriteClean(models.CleanTable{Columns: []string{"Produto"}})
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrorTypeStoreWrite, typ)
}

func TestWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := NewCSVStore(filepath.Join(blocker, "raw.csv"), filepath.Join(blocker, "clean.csv"))
	err := s.WriteRaw([]models.RawRecord{{Product: "A"}})
	require.Error(t, err)
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrorTypeStoreWrite, typ)
}

func TestReadCleanAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadClean()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestReadCleanSkipsNonNumericPrice(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CleanPath()), 0o755))
	require.NoError(t, os.WriteFile(s.CleanPath(), []byte("Produto;Preco;Desconto\nA;abc;1\nB;2.50;x\n"), 0o644))

	out, err := s.ReadClean()
	require.NoError(t, err)
	assert.Equal(t, []models.CleanRecord{{Product: "B", Price: 2.5}}, out.Records)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "120.00", FormatPrice(120))
	assert.Equal(t, "1234.56", FormatPrice(1234.56))
	assert.Equal(t, "0.10", FormatPrice(0.1))
}
