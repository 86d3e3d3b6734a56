package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/motorsync/pkg/types"
)

func newTestPriceList() *PriceList {
	return NewPriceList(
		types.SourceDescriptor{Name: "price-list", Active: true, Priority: 2},
		PriceListConfig{URL: "http://example.invalid/prices.txt"},
	)
}

func TestPriceListParse(t *testing.T) {
	text := `Mercury Outboard Price List

| Model | Description | Price |
| --- | --- | --- |
| 1F02201KK | 2.5MH FourStroke | $1,235.00 |
| 1F10351KK | 9.9MH FourStroke | $3,585.00 |
| 1117F131D | 115ELPT Pro XS | $11,900.00 |

This trailing paragraph is not part of the table.
| 9999999 | Should not be parsed | $1.00 |`

	listings := newTestPriceList().Parse(text)
	require.Len(t, listings, 3, "parsing stops at the first blank line after data rows")

	first := listings[0]
	assert.Equal(t, "1F02201KK 2.5MH FourStroke", first.Raw)
	assert.Equal(t, "1F02201KK", first.StockNumber)
	assert.Equal(t, 1, first.Quantity)
	assert.InDelta(t, 1235.0, first.Price, 0.001)
	require.NotNil(t, first.Parsed.Horsepower)
	assert.InDelta(t, 2.5, *first.Parsed.Horsepower, 0.001)

	assert.Equal(t, types.FamilyProXS, listings[2].Parsed.Family)
	assert.InDelta(t, 11900.0, listings[2].Price, 0.001)
}

func TestPriceListParseToleratesMissingHeader(t *testing.T) {
	text := `| 1F10351KK | 9.9MH FourStroke | $3,585.00 |`

	listings := newTestPriceList().Parse(text)
	require.Len(t, listings, 1)
	assert.Equal(t, "1F10351KK", listings[0].StockNumber)
}

func TestPriceListParseSkipsMalformedRows(t *testing.T) {
	text := `| Model | Description | Price |
| ----- | ----------- | ----- |
| 1F10351KK | 9.9MH FourStroke | $3,585.00 |
| loneCell |
not a table row at all
| 1117F131D | 115ELPT Pro XS | not-a-price |`

	listings := newTestPriceList().Parse(text)
	require.Len(t, listings, 2)

	// A malformed price degrades to zero instead of dropping the row.
	assert.InDelta(t, 0.0, listings[1].Price, 0.001)
}

func TestSeparatorAndHeaderDetection(t *testing.T) {
	assert.True(t, isSeparatorRow("| --- | --- | --- |"))
	assert.True(t, isSeparatorRow("|:---|---:|"))
	assert.False(t, isSeparatorRow("| 9.9MH | FourStroke |"))

	assert.True(t, isHeaderRow("Model", "Description"))
	assert.True(t, isHeaderRow("code", "whatever"))
	assert.False(t, isHeaderRow("1F10351KK", "9.9MH FourStroke"))
}
