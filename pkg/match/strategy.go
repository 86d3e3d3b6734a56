package match

import (
	"sort"
	"strings"

	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/types"
)

// Strategy attempts to match one listing against one catalog motor. A nil
// result means the strategy has no opinion; strategies are tried in order
// and the first non-nil candidate wins for that motor.
type Strategy interface {
	// Name identifies the strategy in justifications and diagnostics
	Name() string

	// Match returns a candidate or nil
	Match(listing types.Listing, motor types.Motor) *types.MatchCandidate
}

// Default returns the standard ordered strategy list: exact model-string
// equality first, weighted scoring second. Strategies can be reordered or
// extended without touching the matcher.
func Default() []Strategy {
	return []Strategy{
		ExactModel{},
		Scored{},
	}
}

// ExactModel matches when the cleaned listing text equals the catalog
// display model, ignoring case. It short-circuits scoring for the common
// case of a feed that carries catalog model strings verbatim.
type ExactModel struct{}

// Name implements Strategy.
func (ExactModel) Name() string { return "exact-model" }

// Match implements Strategy.
func (ExactModel) Match(listing types.Listing, motor types.Motor) *types.MatchCandidate {
	if motor.ModelDisplay == "" {
		return nil
	}
	if !strings.EqualFold(normalize(listing.Raw), normalize(motor.ModelDisplay)) {
		return nil
	}
	breakdown := types.ScoreBreakdown{Horsepower: hpExact, Family: familyExact, Flags: 10}
	return &types.MatchCandidate{
		MotorID:       motor.ID,
		ModelDisplay:  motor.ModelDisplay,
		Score:         100,
		Breakdown:     breakdown,
		Justification: "exact model string match",
	}
}

// Scored applies the weighted confidence score.
type Scored struct{}

// Name implements Strategy.
func (Scored) Name() string { return "scored" }

// Match implements Strategy.
func (Scored) Match(listing types.Listing, motor types.Motor) *types.MatchCandidate {
	motorAttrs := MotorAttributes(motor)
	score, breakdown := Score(listing.Parsed, motorAttrs, listing.Raw, motor.ModelDisplay)
	if score == 0 {
		return nil
	}
	return &types.MatchCandidate{
		MotorID:       motor.ID,
		ModelDisplay:  motor.ModelDisplay,
		Score:         score,
		Breakdown:     breakdown,
		Justification: Justify(breakdown),
	}
}

// Matcher ranks catalog motors against listings using an ordered strategy
// list.
type Matcher struct {
	strategies []Strategy
}

// NewMatcher creates a Matcher. With no strategies it uses Default().
func NewMatcher(strategies ...Strategy) *Matcher {
	if len(strategies) == 0 {
		strategies = Default()
	}
	return &Matcher{strategies: strategies}
}

// Candidates returns all non-zero candidates for a listing, ranked best
// first. Ordering is deterministic: ties break on motor ID.
func (m *Matcher) Candidates(listing types.Listing, motors []types.Motor) []types.MatchCandidate {
	candidates := make([]types.MatchCandidate, 0, len(motors))
	for _, motor := range motors {
		for _, strategy := range m.strategies {
			if c := strategy.Match(listing, motor); c != nil {
				candidates = append(candidates, *c)
				break
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].MotorID < candidates[j].MotorID
	})
	return candidates
}

// Best returns the top candidate for a listing, or nil when nothing scores.
func (m *Matcher) Best(listing types.Listing, motors []types.Motor) *types.MatchCandidate {
	candidates := m.Candidates(listing, motors)
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[0]
}

// MotorAttributes runs a catalog motor's display string through the
// description parser, preferring the motor's own structured fields where
// they are set.
func MotorAttributes(motor types.Motor) types.Attributes {
	attrs := parse.Parse(motor.ModelDisplay)
	if motor.Horsepower > 0 {
		hp := motor.Horsepower
		attrs.Horsepower = &hp
	}
	if motor.Family.IsKnown() {
		attrs.Family = motor.Family
	}
	if motor.ShaftCode != "" {
		attrs.ShaftCode = motor.ShaftCode
	}
	return attrs
}

// normalize collapses whitespace and trims a model string for equality
// comparison.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
