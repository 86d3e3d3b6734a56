// Package enrich merges descriptive enrichment data from multiple sources
// into one catalog record. The merge honors source priority for scalar
// conflicts, unions list fields, applies manual overrides last and
// unconditionally, and computes a 0-100 data-quality score.
package enrich

import (
	"sort"
	"time"

	"github.com/harborline/motorsync/pkg/types"
)

// SourceEnrichment is one source's partial contribution, tagged with the
// source descriptor it came from.
type SourceEnrichment struct {
	Source     types.SourceDescriptor
	Enrichment types.Enrichment
}

// Result is the merged enrichment plus its quality score and the per-field
// origin ledger.
type Result struct {
	Enrichment types.Enrichment
	Quality    int
	Origins    []types.FieldOrigin
}

// Merge combines partial enrichment results for one catalog record. Sources
// are ordered by descriptor priority (lower rank first). Policy per field:
//
//   - description: first non-empty value in priority order wins
//   - features, images: union with de-duplication, order-preserving
//   - specifications: first-writer-wins per key
//
// The override bundle is applied last and overwrites any field it defines,
// including explicitly emptying one.
func Merge(contributions []SourceEnrichment, override *types.Override) Result {
	ordered := make([]SourceEnrichment, len(contributions))
	copy(ordered, contributions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Source.Priority < ordered[j].Source.Priority
	})

	now := time.Now().UTC()
	var merged types.Enrichment
	var origins []types.FieldOrigin

	seenFeature := make(map[string]struct{})
	seenImage := make(map[string]struct{})

	for _, c := range ordered {
		e := c.Enrichment

		if merged.Description == "" && e.Description != "" {
			merged.Description = e.Description
			origins = append(origins, types.FieldOrigin{Field: "description", Source: c.Source.Name, Timestamp: now})
		}

		for _, f := range e.Features {
			if _, ok := seenFeature[f]; ok || f == "" {
				continue
			}
			seenFeature[f] = struct{}{}
			merged.Features = append(merged.Features, f)
		}
		if len(e.Features) > 0 {
			origins = append(origins, types.FieldOrigin{Field: "features", Source: c.Source.Name, Timestamp: now})
		}

		for key, value := range e.Specifications {
			if merged.Specifications == nil {
				merged.Specifications = make(map[string]string)
			}
			if _, ok := merged.Specifications[key]; !ok {
				merged.Specifications[key] = value
			}
		}
		if len(e.Specifications) > 0 {
			origins = append(origins, types.FieldOrigin{Field: "specifications", Source: c.Source.Name, Timestamp: now})
		}

		for _, img := range e.Images {
			if _, ok := seenImage[img]; ok || img == "" {
				continue
			}
			seenImage[img] = struct{}{}
			merged.Images = append(merged.Images, img)
		}
		if len(e.Images) > 0 {
			origins = append(origins, types.FieldOrigin{Field: "images", Source: c.Source.Name, Timestamp: now})
		}
	}

	merged, origins = applyOverride(merged, override, origins, now)

	return Result{
		Enrichment: merged,
		Quality:    Quality(merged),
		Origins:    origins,
	}
}

// applyOverride enforces manual-override supremacy: every field the bundle
// defines replaces the merged value, empty or not.
func applyOverride(merged types.Enrichment, override *types.Override, origins []types.FieldOrigin, now time.Time) (types.Enrichment, []types.FieldOrigin) {
	if override.Empty() {
		return merged, origins
	}

	if override.Description != nil {
		merged.Description = *override.Description
		origins = append(origins, types.FieldOrigin{Field: "description", Source: "manual_override", Timestamp: now})
	}
	if override.Features != nil {
		merged.Features = append([]string(nil), (*override.Features)...)
		origins = append(origins, types.FieldOrigin{Field: "features", Source: "manual_override", Timestamp: now})
	}
	if override.Specifications != nil {
		merged.Specifications = make(map[string]string, len(*override.Specifications))
		for k, v := range *override.Specifications {
			merged.Specifications[k] = v
		}
		origins = append(origins, types.FieldOrigin{Field: "specifications", Source: "manual_override", Timestamp: now})
	}
	if override.Images != nil {
		merged.Images = append([]string(nil), (*override.Images)...)
		origins = append(origins, types.FieldOrigin{Field: "images", Source: "manual_override", Timestamp: now})
	}

	return merged, origins
}

// Quality scores merged enrichment 0-100: 25 points per populated field
// class plus bonuses for depth, capped at 100.
func Quality(e types.Enrichment) int {
	score := 0
	if e.Description != "" {
		score += 25
	}
	if len(e.Features) > 0 {
		score += 25
	}
	if len(e.Specifications) > 0 {
		score += 25
	}
	if len(e.Images) > 0 {
		score += 25
	}
	if len(e.Features) >= 5 {
		score += 10
	}
	if len(e.Specifications) >= 5 {
		score += 10
	}
	if len(e.Images) >= 3 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
