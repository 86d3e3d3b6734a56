package types

// Attributes are the structured fields extracted from a free-text motor
// description. Horsepower is a pointer because many listings carry none, and
// a missing horsepower must stay distinguishable from zero.
type Attributes struct {
	Horsepower *float64 `json:"horsepower,omitempty"`
	Family     Family   `json:"family"`
	ShaftCode  string   `json:"shaft_code,omitempty"`
	Flags      Flags    `json:"flags"`
}

// Flags are the independent boolean configuration markers a listing can
// carry. A listing can have any combination set.
type Flags struct {
	CommandThrust bool `json:"command_thrust"`
	Jet           bool `json:"jet"`
	EFI           bool `json:"efi"`
	ProKicker     bool `json:"pro_kicker"`
}

// Listing is one scraped, unstructured motor description from an external
// source. Listings are ephemeral: they live for one sync run and survive only
// inside the run log or a review queue entry.
type Listing struct {
	Raw         string     `json:"raw"`
	Source      string     `json:"source"`
	Parsed      Attributes `json:"parsed"`
	Price       float64    `json:"price,omitempty"`
	StockNumber string     `json:"stock_number,omitempty"`
	Quantity    int        `json:"quantity"`
}

// Key returns the identity used to deduplicate review queue entries for the
// same listing across runs.
func (l Listing) Key() string {
	if l.StockNumber != "" {
		return l.Source + ":" + l.StockNumber
	}
	return l.Source + ":" + l.Raw
}
