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

const testPage = `<html><body>
<script>alert("stripped")</script>
<h1>9.9MH FourStroke</h1>
<p>Reliable portable outboard for tenders and small boats.</p>
<ul>
  <li>Multi-function tiller handle</li>
  <li>Enhanced corrosion protection</li>
</ul>
<p>Weight: 87 lbs</p>
<p>Displacement: 209cc</p>
<img src="https://cdn.example.com/motors/99mh-front.jpg" alt="front">
<img src="https://cdn.example.com/motors/99mh-side.jpg" alt="side">
<img src="data:image/png;base64,AAAA" alt="inline">
</body></html>`

func newTestScrape(urlTemplate string) *Scrape {
	return NewScrape(
		types.SourceDescriptor{Name: "dealer-site", Active: true, Priority: 3},
		ScrapeConfig{URLTemplate: urlTemplate},
	)
}

func TestScrapeParse(t *testing.T) {
	result := newTestScrape("").Parse(testPage)

	assert.Contains(t, result.Description, "Reliable portable outboard")
	assert.NotContains(t, result.Description, "alert", "script content is sanitized away")

	assert.Contains(t, result.Features, "Multi-function tiller handle")
	assert.Contains(t, result.Features, "Enhanced corrosion protection")

	assert.Equal(t, "87 lbs", result.Specifications["Weight"])
	assert.Equal(t, "209cc", result.Specifications["Displacement"])

	// Image URLs come from the raw markup; data URIs are dropped.
	assert.Equal(t, []string{
		"https://cdn.example.com/motors/99mh-front.jpg",
		"https://cdn.example.com/motors/99mh-side.jpg",
	}, result.Images)
}

func TestScrapeParseEmptyPage(t *testing.T) {
	result := newTestScrape("").Parse("")
	assert.True(t, result.IsEmpty())
}

func TestScrapeEnrichmentFor(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.RequestURI()
		_, _ = w.Write([]byte(testPage))
	}))
	defer server.Close()

	src := newTestScrape(server.URL + "/motors/{model}")
	motor := types.Motor{ID: 1, ModelDisplay: "9.9MH FourStroke"}

	result, err := src.EnrichmentFor(context.Background(), motor)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, requestedPath, "9.9MH")
	assert.NotEmpty(t, result.Features)
}

func TestScrapeEnrichmentForUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	src := newTestScrape(server.URL + "/motors/{model}")
	_, err := src.EnrichmentFor(context.Background(), types.Motor{ModelDisplay: "9.9MH"})
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
}
