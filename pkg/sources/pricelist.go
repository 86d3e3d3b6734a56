package sources

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/types"
)

// PriceListConfig configures the pipe-delimited price list adapter.
type PriceListConfig struct {
	URL     string
	Timeout time.Duration
}

// PriceList parses a pipe-delimited text table of
// "| modelCode | description | $price |" rows. The parser tolerates a
// leading header row and "---" separator row and stops at the first blank
// line once data rows have begun.
type PriceList struct {
	descriptor types.SourceDescriptor
	config     PriceListConfig
	client     *http.Client

	mu       sync.RWMutex
	listings []types.Listing
}

// NewPriceList creates the price list adapter.
func NewPriceList(descriptor types.SourceDescriptor, config PriceListConfig) *PriceList {
	if config.Timeout <= 0 {
		config.Timeout = DefaultFeedTimeout
	}
	return &PriceList{
		descriptor: descriptor,
		config:     config,
		client:     &http.Client{},
	}
}

// Descriptor implements Source.
func (s *PriceList) Descriptor() types.SourceDescriptor {
	return s.descriptor
}

// Fetch implements Source.
func (s *PriceList) Fetch(ctx context.Context) error {
	body, err := httpGet(ctx, s.client, s.descriptor.Name, s.config.URL, s.config.Timeout)
	if err != nil {
		return err
	}

	listings := s.Parse(string(body))

	s.mu.Lock()
	s.listings = listings
	s.mu.Unlock()
	return nil
}

// Listings implements ListingSource.
func (s *PriceList) Listings() []types.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// Parse extracts (modelCode, description, price) rows from the table text.
// Rows that do not carry at least a model code and a description are
// skipped; malformed prices degrade to zero.
func (s *PriceList) Parse(text string) []types.Listing {
	var listings []types.Listing
	sawData := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if sawData {
				break
			}
			continue
		}
		if !strings.HasPrefix(line, "|") {
			continue
		}
		if isSeparatorRow(line) {
			continue
		}

		cells := splitRow(line)
		if len(cells) < 2 {
			continue
		}
		modelCode := cells[0]
		description := cells[1]
		if modelCode == "" || description == "" {
			continue
		}
		if isHeaderRow(modelCode, description) {
			continue
		}

		price := 0.0
		if len(cells) >= 3 {
			price = parsePrice(cells[2])
		}

		raw := modelCode + " " + description
		listings = append(listings, types.Listing{
			Raw:         raw,
			Source:      s.descriptor.Name,
			Parsed:      parse.Parse(raw),
			Price:       price,
			StockNumber: modelCode,
			Quantity:    1,
		})
		sawData = true
	}

	return listings
}

// splitRow splits "| a | b | c |" into trimmed cells.
func splitRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// isSeparatorRow reports whether a row is the "---" divider under the header.
func isSeparatorRow(line string) bool {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '|', '-', ':', ' ':
			return -1
		}
		return r
	}, line)
	return stripped == "" && strings.Contains(line, "-")
}

// isHeaderRow recognizes the common header cell labels.
func isHeaderRow(modelCode, description string) bool {
	mc := strings.ToLower(modelCode)
	desc := strings.ToLower(description)
	return mc == "model" || mc == "model code" || mc == "code" ||
		desc == "description" || desc == "model"
}
