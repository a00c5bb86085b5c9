package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campaignTable() *Table {
	return &Table{
		Path:   "Campaigns.csv",
		Header: []string{"State", "Campaigns", "Clicks", "Spend(GBP)", "Sales(GBP)", "Impressions"},
		Rows: [][]string{
			{"ENABLED", "Widget-UK-Auto", "4", "£10.00", "£50.00", "100"},
			{"ENABLED", "Widget-UK-Auto", "2", "£5.00", "£0.00", "50"},
			{"ARCHIVED", "Widget-UK-Auto", "9", "£99.00", "£999.00", "900"},
			{"ENABLED", "Gadget-UK-Exact", "1", "£1.50", "£20.00", "10"},
		},
	}
}

func TestNormalizeGroupsAndSums(t *testing.T) {
	spec := Spec{
		Fields: []Field{
			{Name: "name", Index: ByName, Aliases: []string{"Campaigns"}},
			{Name: "clicks", Index: ByName, Aliases: []string{"Clicks"}, Numeric: true, Agg: VerbSum},
			{Name: "spend", Index: ByName, Aliases: []string{"Spend(GBP)", "Spend"}, Numeric: true, Agg: VerbSum},
			{Name: "state", Index: ByName, Aliases: []string{"State"}},
		},
		GroupBy: "name",
		Filter:  &RowFilter{Field: "state", Allowed: []string{"ENABLED", "PAUSED"}},
	}

	g, err := Normalize(campaignTable(), spec)
	require.NoError(t, err)

	require.Equal(t, []string{"Widget-UK-Auto", "Gadget-UK-Exact"}, g.Keys)
	assert.Equal(t, 6.0, g.Numeric["clicks"][0])
	assert.Equal(t, 15.0, g.Numeric["spend"][0])
	assert.Equal(t, 1.5, g.Numeric["spend"][1])
	// first-verb text field keeps the first row's value
	assert.Equal(t, "ENABLED", g.Text["state"][0])
}

func TestNormalizeFirstVerbNumeric(t *testing.T) {
	table := &Table{
		Path:   "sessions.csv",
		Header: []string{"asin", "sessions"},
		Rows: [][]string{
			{"B0TEST1", "100"},
			{"B0TEST1", "40"},
		},
	}
	spec := Spec{
		Fields: []Field{
			{Name: "asin", Index: 0},
			{Name: "sessions", Index: 1, Numeric: true, Agg: VerbFirst},
		},
		GroupBy: "asin",
	}

	g, err := Normalize(table, spec)
	require.NoError(t, err)
	assert.Equal(t, 100.0, g.Numeric["sessions"][0])
}

func TestNormalizeIdempotent(t *testing.T) {
	spec := Spec{
		Fields: []Field{
			{Name: "name", Index: 1},
			{Name: "clicks", Index: 2, Numeric: true, Agg: VerbSum},
		},
		GroupBy: "name",
	}
	first, err := Normalize(campaignTable(), spec)
	require.NoError(t, err)
	second, err := Normalize(campaignTable(), spec)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeMissingColumns(t *testing.T) {
	spec := Spec{
		Fields: []Field{
			{Name: "name", Index: ByName, Aliases: []string{"Campaigns"}},
			{Name: "orders", Index: ByName, Aliases: []string{"Orders"}},
			{Name: "acos", Index: 42},
		},
		GroupBy: "name",
	}

	_, err := Normalize(campaignTable(), spec)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.ElementsMatch(t, []string{"orders", "acos"}, schemaErr.Missing)
}

func TestNormalizeFilterRemovesEverything(t *testing.T) {
	spec := Spec{
		Fields: []Field{
			{Name: "name", Index: ByName, Aliases: []string{"Campaigns"}},
			{Name: "state", Index: ByName, Aliases: []string{"State"}},
		},
		GroupBy: "name",
		Filter:  &RowFilter{Field: "state", Allowed: []string{"NO_SUCH_STATE"}},
	}

	_, err := Normalize(campaignTable(), spec)
	var noRows *NoApplicableRowsError
	require.ErrorAs(t, err, &noRows)
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"£12.50", 12.5},
		{"$5", 5},
		{"€7.25", 7.25},
		{"1\u00a0234", 1234},
		{"2\u202f500", 2500},
		{" 42 ", 42},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CoerceNumber(tc.raw), "raw=%q", tc.raw)
	}
}

func TestRatioZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(10, 0, 4))
	assert.Equal(t, 0.04, Ratio(6, 150, 4))
	assert.Equal(t, 2.5, Ratio(15, 6, 2))
	assert.Equal(t, 0.3, Ratio(15, 50, 4))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	var srcErr *DataSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, SourceNotFound, srcErr.Kind)

	headerOnly := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("a,b,c\n"), 0o644))
	_, err = ReadCSV(headerOnly)
	srcErr = nil
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, SourceEmpty, srcErr.Kind)
}

func TestReadCSVUnevenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uneven.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2\n3,4,5,6\n"), 0o644))

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestNoMatchErrorIsDistinct(t *testing.T) {
	err := error(&NoMatchError{Path: "x.csv"})
	var noRows *NoApplicableRowsError
	assert.False(t, errors.As(err, &noRows))
}
