package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed>
  <item>
    <manufacturer>Mercury</manufacturer>
    <condition>New</condition>
    <title>9.9MH FourStroke</title>
    <stocknumber>MS-1001</stocknumber>
    <price>$3,585.00</price>
  </item>
  <item>
    <manufacturer>Mercury</manufacturer>
    <condition>New</condition>
    <title>9.9MH FourStroke</title>
    <stocknumber>MS-1002</stocknumber>
    <price>$3,495.00</price>
  </item>
  <item>
    <manufacturer>Mercury</manufacturer>
    <condition>New</condition>
    <title>115ELPT Pro XS</title>
    <stocknumber>MS-2001</stocknumber>
    <price>$11,900.00</price>
  </item>
  <item>
    <manufacturer>Yamaha</manufacturer>
    <condition>New</condition>
    <title>F115 In-Line</title>
    <stocknumber>YH-1</stocknumber>
    <price>$12,000.00</price>
  </item>
  <item>
    <manufacturer>Mercury</manufacturer>
    <condition>Used</condition>
    <title>25EL FourStroke</title>
    <stocknumber>US-9</stocknumber>
    <price>$2,000.00</price>
  </item>
</feed>`

func newTestInventory(url string) *InventoryXML {
	return NewInventoryXML(
		types.SourceDescriptor{Name: "vendor-inventory", Active: true, Priority: 1},
		InventoryXMLConfig{URL: url, Manufacturer: "Mercury", Condition: "New"},
	)
}

func TestInventoryXMLParse(t *testing.T) {
	src := newTestInventory("")

	listings, err := src.Parse([]byte(testFeed))
	require.NoError(t, err)
	require.Len(t, listings, 2, "Yamaha and Used items are filtered out")

	// Duplicate titles aggregate: quantity counts units, the highest price
	// wins, the first stock number sticks. Feed order is preserved.
	first := listings[0]
	assert.Equal(t, "9.9MH FourStroke", first.Raw)
	assert.Equal(t, 2, first.Quantity)
	assert.InDelta(t, 3585.0, first.Price, 0.001)
	assert.Equal(t, "MS-1001", first.StockNumber)
	require.NotNil(t, first.Parsed.Horsepower)
	assert.InDelta(t, 9.9, *first.Parsed.Horsepower, 0.001)

	second := listings[1]
	assert.Equal(t, "115ELPT Pro XS", second.Raw)
	assert.Equal(t, 1, second.Quantity)
	assert.Equal(t, types.FamilyProXS, second.Parsed.Family)
}

func TestInventoryXMLParseMalformed(t *testing.T) {
	src := newTestInventory("")
	_, err := src.Parse([]byte("not xml at all <"))
	assert.Error(t, err)
}

func TestInventoryXMLFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer server.Close()

	src := newTestInventory(server.URL)
	require.NoError(t, src.Fetch(context.Background()))
	assert.Len(t, src.Listings(), 2)
}

func TestInventoryXMLFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	src := newTestInventory(server.URL)
	err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$3,585.00", 3585},
		{"3585", 3585},
		{" $11,900 ", 11900},
		{"call for price", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parsePrice(tt.raw), 0.001, "raw %q", tt.raw)
	}
}
