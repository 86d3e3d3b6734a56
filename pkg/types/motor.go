package types

import "time"

// Family classifies a motor into one of the known product lines.
type Family string

// Known motor families, ordered by classification priority.
const (
	FamilyVerado     Family = "Verado"
	FamilyProXS      Family = "Pro XS"
	FamilySeaPro     Family = "SeaPro"
	FamilyFourStroke Family = "FourStroke"
	FamilyEFI        Family = "EFI"
	FamilyUnknown    Family = "Unknown"
)

// String returns the string representation of a family.
func (f Family) String() string {
	return string(f)
}

// IsKnown reports whether the family carries a real classification signal.
func (f Family) IsKnown() bool {
	return f != FamilyUnknown && f != ""
}

// Motor is the canonical, persisted catalog record. It is created during
// catalog seeding and mutated only by the reconciler (stock and price) and
// the enrichment merger (descriptive fields). It is never deleted by the
// engine.
type Motor struct {
	ID           int64   `json:"id"`
	ModelDisplay string  `json:"model_display"`
	Horsepower   float64 `json:"horsepower"`
	Family       Family  `json:"family"`
	ShaftCode    string  `json:"shaft_code,omitempty"`

	InStock       bool  `json:"in_stock"`
	StockQuantity int   `json:"stock_quantity"`
	StockNumber   string `json:"stock_number,omitempty"`

	// Competing price sources. They are distinct on purpose: a scraped
	// dealer price never overwrites the catalog base price, and an
	// estimate never masquerades as either.
	BasePrice      float64 `json:"base_price,omitempty"`
	DealerPrice    float64 `json:"dealer_price,omitempty"`
	EstimatedPrice float64 `json:"estimated_price,omitempty"`

	Description    string            `json:"description,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Images         []string          `json:"images,omitempty"`

	// Origins records which source supplied which descriptive field.
	Origins []FieldOrigin `json:"origins,omitempty"`

	QualityScore int `json:"quality_score"`

	// Override always wins over scraped data when present.
	Override *Override `json:"override,omitempty"`

	LastStockCheck *time.Time `json:"last_stock_check,omitempty"`
	LastEnriched   *time.Time `json:"last_enriched,omitempty"`
}

// Override is the manual-override bundle for a motor. A nil pointer field
// means "no override for this field"; a non-nil pointer wins unconditionally,
// including an explicit empty value.
type Override struct {
	Description    *string            `json:"description,omitempty"`
	Features       *[]string          `json:"features,omitempty"`
	Specifications *map[string]string `json:"specifications,omitempty"`
	Images         *[]string          `json:"images,omitempty"`
	DealerPrice    *float64           `json:"dealer_price,omitempty"`
}

// Empty reports whether the bundle defines no fields at all.
func (o *Override) Empty() bool {
	if o == nil {
		return true
	}
	return o.Description == nil && o.Features == nil &&
		o.Specifications == nil && o.Images == nil && o.DealerPrice == nil
}

// FieldOrigin records that one source supplied one descriptive field.
type FieldOrigin struct {
	Field     string    `json:"field"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
