package sources

import (
	"context"
	"encoding/xml"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/types"
)

// InventoryXMLConfig configures the vendor unit-inventory feed adapter.
type InventoryXMLConfig struct {
	URL          string
	Manufacturer string
	Condition    string
	Timeout      time.Duration
}

// InventoryXML parses the vendor unit-inventory XML feed. Items are filtered
// to the configured manufacturer/condition pair, and duplicate titles are
// aggregated into one listing per model because the same model ships as
// multiple physical units.
type InventoryXML struct {
	descriptor types.SourceDescriptor
	config     InventoryXMLConfig
	client     *http.Client

	mu       sync.RWMutex
	listings []types.Listing
}

// inventoryItem is the subset of feed item fields the engine extracts.
type inventoryItem struct {
	Manufacturer string `xml:"manufacturer"`
	Condition    string `xml:"condition"`
	Title        string `xml:"title"`
	StockNumber  string `xml:"stocknumber"`
	Price        string `xml:"price"`
}

// inventoryFeed is the feed document envelope.
type inventoryFeed struct {
	Items []inventoryItem `xml:"item"`
}

// NewInventoryXML creates the inventory feed adapter.
func NewInventoryXML(descriptor types.SourceDescriptor, config InventoryXMLConfig) *InventoryXML {
	if config.Timeout <= 0 {
		config.Timeout = DefaultFeedTimeout
	}
	return &InventoryXML{
		descriptor: descriptor,
		config:     config,
		client:     &http.Client{},
	}
}

// Descriptor implements Source.
func (s *InventoryXML) Descriptor() types.SourceDescriptor {
	return s.descriptor
}

// Fetch implements Source.
func (s *InventoryXML) Fetch(ctx context.Context) error {
	body, err := httpGet(ctx, s.client, s.descriptor.Name, s.config.URL, s.config.Timeout)
	if err != nil {
		return err
	}

	listings, err := s.Parse(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listings = listings
	s.mu.Unlock()
	return nil
}

// Listings implements ListingSource.
func (s *InventoryXML) Listings() []types.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Listing, len(s.listings))
	copy(out, s.listings)
	return out
}

// aggregate accumulates the units behind one feed title.
type aggregate struct {
	quantity    int
	maxPrice    float64
	stockNumber string
	firstSeen   int
}

// Parse decodes the feed payload, filters to the configured manufacturer and
// condition, and aggregates duplicate titles into a single
// (quantity, maxPrice, firstStockNumber) listing.
func (s *InventoryXML) Parse(payload []byte) ([]types.Listing, error) {
	var feed inventoryFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, errors.NewParseError(s.descriptor.Name, "xml", "decode inventory feed", err)
	}

	byTitle := make(map[string]*aggregate)
	order := 0
	for _, item := range feed.Items {
		if !strings.EqualFold(strings.TrimSpace(item.Manufacturer), s.config.Manufacturer) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(item.Condition), s.config.Condition) {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		price := parsePrice(item.Price)
		agg, ok := byTitle[title]
		if !ok {
			agg = &aggregate{stockNumber: strings.TrimSpace(item.StockNumber), firstSeen: order}
			byTitle[title] = agg
			order++
		}
		agg.quantity++
		if price > agg.maxPrice {
			agg.maxPrice = price
		}
	}

	listings := make([]types.Listing, 0, len(byTitle))
	for title, agg := range byTitle {
		listings = append(listings, types.Listing{
			Raw:         title,
			Source:      s.descriptor.Name,
			Parsed:      parse.Parse(title),
			Price:       agg.maxPrice,
			StockNumber: agg.stockNumber,
			Quantity:    agg.quantity,
		})
	}
	// Feed order, not map order, so runs are deterministic.
	sort.SliceStable(listings, func(i, j int) bool {
		return byTitle[listings[i].Raw].firstSeen < byTitle[listings[j].Raw].firstSeen
	})
	return listings, nil
}

// parsePrice strips currency decoration and parses a feed price. Malformed
// prices degrade to zero rather than dropping the unit.
func parsePrice(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}
