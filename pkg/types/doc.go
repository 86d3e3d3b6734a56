// Package types defines the core entities shared across the motorsync
// engine: the canonical catalog motor record, scraped listings, match
// candidates, the review queue, source descriptors, and sync runs.
package types
