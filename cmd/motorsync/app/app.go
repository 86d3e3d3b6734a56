// Package app wires the motorsync application together: configuration,
// logging, the store, the source registry, and the reconciler.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/harborline/motorsync/internal/store"
	"github.com/harborline/motorsync/pkg/errors"
	"github.com/harborline/motorsync/pkg/pricing"
	"github.com/harborline/motorsync/pkg/reconcile"
	"github.com/harborline/motorsync/pkg/sources"
	"github.com/harborline/motorsync/pkg/types"
)

// App is the assembled application.
type App struct {
	Config     *Config
	Logger     zerolog.Logger
	Store      *store.Store
	Registry   *sources.Registry
	Reconciler *reconcile.Reconciler
}

// New assembles the application from config: opens the store, builds the
// configured source adapters, seeds their health rows, and constructs the
// reconciler.
func New(ctx context.Context, config *Config) (*App, error) {
	logger := NewLogger(config)

	st, err := store.Open(config.Database)
	if err != nil {
		return nil, err
	}

	registry, enrichers, err := buildSources(config.Sources)
	if err != nil {
		st.Close()
		return nil, err
	}

	descriptors := make([]types.SourceDescriptor, 0, len(config.Sources))
	for _, sc := range config.Sources {
		descriptors = append(descriptors, types.SourceDescriptor{
			Name:     sc.Name,
			Active:   sc.Active,
			Priority: sc.Priority,
		})
	}
	if err := st.SeedSources(ctx, descriptors); err != nil {
		st.Close()
		return nil, err
	}

	estimator := pricing.NewEstimator()
	if config.PricingCurvesFile != "" {
		estimator, err = pricing.LoadEstimator(config.PricingCurvesFile)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	reconciler, err := reconcile.New(st, registry,
		reconcile.WithThresholds(config.AutoAcceptThreshold, config.RejectFloor),
		reconcile.WithFetchConcurrency(config.FetchConcurrency),
		reconcile.WithEstimator(estimator),
		reconcile.WithEnrichers(enrichers...),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		Config:     config,
		Logger:     logger,
		Store:      st,
		Registry:   registry,
		Reconciler: reconciler,
	}, nil
}

// Close releases application resources.
func (a *App) Close() error {
	return a.Store.Close()
}

// buildSources constructs adapters from source configs. Listing feeds land in
// the registry; scrape adapters are returned as per-record enrichers.
func buildSources(configs []SourceConfig) (*sources.Registry, []sources.EnrichmentSource, error) {
	registry := sources.NewRegistry()
	var enrichers []sources.EnrichmentSource

	for _, sc := range configs {
		descriptor := types.SourceDescriptor{
			Name:     sc.Name,
			Active:   sc.Active,
			Priority: sc.Priority,
		}
		switch sc.Type {
		case "inventory_xml":
			registry.Set(sources.NewInventoryXML(descriptor, sources.InventoryXMLConfig{
				URL:          sc.URL,
				Manufacturer: sc.Manufacturer,
				Condition:    sc.Condition,
				Timeout:      sc.Timeout(),
			}))
		case "price_list":
			registry.Set(sources.NewPriceList(descriptor, sources.PriceListConfig{
				URL:     sc.URL,
				Timeout: sc.Timeout(),
			}))
		case "scrape":
			enrichers = append(enrichers, sources.NewScrape(descriptor, sources.ScrapeConfig{
				URLTemplate: sc.URLTemplate,
				Timeout:     sc.Timeout(),
			}))
		default:
			return nil, nil, &errors.ValidationError{
				Field:   "sources",
				Value:   sc.Type,
				Message: fmt.Sprintf("unknown source type for %q", sc.Name),
			}
		}
	}
	return registry, enrichers, nil
}

// ContextWithSignals returns a context canceled on SIGINT or SIGTERM.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
