package sources

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/harborline/motorsync/pkg/types"
)

// ScrapeConfig configures one generic web-scrape enrichment source. The URL
// template contains a {model} placeholder expanded per catalog record.
type ScrapeConfig struct {
	URLTemplate string
	Timeout     time.Duration
}

// Scrape fetches an enrichment page per motor, sanitizes the HTML, and
// extracts a partial enrichment result: a markdown description, feature
// bullets, "key: value" specification lines, and image URLs. These are
// opportunistic per-item checks, so the default timeout is short; failures
// never escape the adapter boundary.
type Scrape struct {
	descriptor types.SourceDescriptor
	config     ScrapeConfig
	client     *http.Client
	sanitizer  *bluemonday.Policy
	converter  *converter.Converter
}

var (
	imgSrcRe   = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	specLineRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /()%.-]{1,40}):\s+(.+)$`)
)

// NewScrape creates a scrape enrichment adapter.
func NewScrape(descriptor types.SourceDescriptor, config ScrapeConfig) *Scrape {
	if config.Timeout <= 0 {
		config.Timeout = DefaultScrapeTimeout
	}
	return &Scrape{
		descriptor: descriptor,
		config:     config,
		client:     &http.Client{},
		sanitizer:  bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Descriptor implements EnrichmentSource.
func (s *Scrape) Descriptor() types.SourceDescriptor {
	return s.descriptor
}

// EnrichmentFor implements EnrichmentSource: it downloads the source's page
// for one motor and extracts whatever partial enrichment it offers.
func (s *Scrape) EnrichmentFor(ctx context.Context, motor types.Motor) (*types.Enrichment, error) {
	target := strings.ReplaceAll(s.config.URLTemplate, "{model}", url.QueryEscape(motor.ModelDisplay))

	body, err := httpGet(ctx, s.client, s.descriptor.Name, target, s.config.Timeout)
	if err != nil {
		return nil, err
	}

	result := s.Parse(string(body))
	return &result, nil
}

// Parse extracts the partial enrichment result from raw page HTML.
func (s *Scrape) Parse(html string) types.Enrichment {
	var result types.Enrichment

	// Image URLs come from the raw markup; the sanitizer may strip them.
	for _, m := range imgSrcRe.FindAllStringSubmatch(html, -1) {
		src := strings.TrimSpace(m[1])
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		result.Images = append(result.Images, src)
	}

	sanitized := s.sanitizer.Sanitize(html)
	markdown, err := s.converter.ConvertString(sanitized)
	if err != nil || strings.TrimSpace(markdown) == "" {
		return result
	}
	markdown = strings.TrimSpace(markdown)

	var descriptionLines []string
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if bullet, ok := strings.CutPrefix(line, "- "); ok {
			bullet = strings.TrimSpace(bullet)
			if bullet != "" {
				result.Features = append(result.Features, bullet)
			}
			continue
		}

		if m := specLineRe.FindStringSubmatch(line); m != nil {
			if result.Specifications == nil {
				result.Specifications = make(map[string]string)
			}
			key := strings.TrimSpace(m[1])
			if _, exists := result.Specifications[key]; !exists {
				result.Specifications[key] = strings.TrimSpace(m[2])
			}
			continue
		}

		descriptionLines = append(descriptionLines, line)
	}

	result.Description = strings.Join(descriptionLines, "\n\n")
	return result
}
