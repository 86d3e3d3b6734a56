// Package sources defines the capability contract for external motor feeds
// and the adapters that implement it: the vendor unit-inventory XML feed,
// the pipe-delimited price list, and generic web-scrape enrichment sources.
//
// Adapters are polymorphic over the Source interface; the reconciler never
// branches on source identity beyond descriptor bookkeeping. Fetch failures
// stay inside the adapter boundary as FetchErrors and degrade to "source
// failed this run".
package sources

import (
	"context"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/types"
)

// Source is the base capability every feed adapter implements.
type Source interface {
	// Descriptor returns the source's identity and merge priority
	Descriptor() types.SourceDescriptor

	// Fetch retrieves and parses the feed. It must respect ctx deadlines
	// and return a FetchError rather than panic past its boundary.
	Fetch(ctx context.Context) error
}

// ListingSource is a source that yields scraped stock listings.
type ListingSource interface {
	Source

	// Listings returns the parsed listings from the last successful Fetch
	Listings() []types.Listing
}

// EnrichmentSource yields partial descriptive enrichment for one motor at a
// time. Unlike listing feeds these are not fetched as a unit per run; the
// reconciler calls them opportunistically per record with a short deadline.
type EnrichmentSource interface {
	// Descriptor returns the source's identity and merge priority
	Descriptor() types.SourceDescriptor

	// EnrichmentFor retrieves the partial enrichment result for one motor.
	// A nil result with a nil error means the source has nothing to offer.
	EnrichmentFor(ctx context.Context, motor types.Motor) (*types.Enrichment, error)
}

// Registry is a thread-safe container for configured sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Set registers a source under its descriptor name.
func (r *Registry) Set(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.Descriptor().Name] = src
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, found := r.sources[name]
	return src, found
}

// List returns all registered sources.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, src)
	}
	return out
}

// Active returns the registered sources whose descriptors are active.
func (r *Registry) Active() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		if src.Descriptor().Active {
			out = append(out, src)
		}
	}
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// DescriptorFile is the YAML seed file shape for source descriptors.
type DescriptorFile struct {
	Sources []types.SourceDescriptor `yaml:"sources"`
}

// LoadDescriptors reads source descriptors from a YAML file.
func LoadDescriptors(path string) ([]types.SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewParseError("sources", "yaml", "read descriptor file", err)
	}
	var file DescriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewParseError("sources", "yaml", "decode descriptor file", err)
	}
	return file.Sources, nil
}
