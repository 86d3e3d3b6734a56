// Package match scores scraped listings against canonical catalog motors.
// The scorer is pure and deterministic: the same two inputs always produce
// the same score and breakdown. Thresholds are applied downstream by the
// reconciler, never here.
package match

import (
	"fmt"
	"math"
	"strings"

	"github.com/harborline/motorsync/pkg/parse"
	"github.com/harborline/motorsync/pkg/types"
)

// Horsepower proximity tiers. Horsepower is the dominant signal: a listing
// with no extractable horsepower scores zero here and cannot auto-match.
const (
	hpExact  = 60
	hpClose  = 50
	hpNear   = 30
	hpRough  = 15
	familyExact    = 30
	familyCross    = 20
	familyContains = 15
	shaftBonus     = 5
)

// flagWeights gives each boolean flag its agreement score. Agreement means
// both sides true or both sides false.
var flagWeights = []struct {
	name   string
	weight int
	get    func(types.Flags) bool
}{
	{"command_thrust", 3, func(f types.Flags) bool { return f.CommandThrust }},
	{"jet", 3, func(f types.Flags) bool { return f.Jet }},
	{"efi", 2, func(f types.Flags) bool { return f.EFI }},
	{"pro_kicker", 2, func(f types.Flags) bool { return f.ProKicker }},
}

// Score computes the 0-100 confidence that a parsed listing and a catalog
// motor describe the same model. rawListing and rawMotor are the original
// strings, used only for the shaft-code bonus.
func Score(listing, motor types.Attributes, rawListing, rawMotor string) (int, types.ScoreBreakdown) {
	breakdown := types.ScoreBreakdown{
		Horsepower: horsepowerScore(listing.Horsepower, motor.Horsepower),
		Family:     familyScore(listing.Family, motor.Family),
		Flags:      flagScore(listing.Flags, motor.Flags),
		ShaftCode:  shaftScore(rawListing, rawMotor),
	}
	// When both sides state a horsepower and disagree beyond the widest
	// tier, the pair cannot be the same model. Secondary components must
	// not carry such a pair into the review band, so the score collapses
	// to zero. The breakdown is kept for diagnostics.
	if listing.Horsepower != nil && motor.Horsepower != nil && breakdown.Horsepower == 0 {
		return 0, breakdown
	}
	return breakdown.Total(), breakdown
}

// horsepowerScore awards up to 60 points by proximity. Either side missing
// means no signal at all. Tier boundaries tolerate float noise: 9.9 vs 10.0
// computes a difference fractionally under 0.1 and must land in the 0.1
// tier, not the exact one.
func horsepowerScore(a, b *float64) int {
	if a == nil || b == nil {
		return 0
	}
	const eps = 1e-9
	diff := math.Abs(*a - *b)
	switch {
	case diff < 0.1-eps:
		return hpExact
	case diff <= 0.5+eps:
		return hpClose
	case diff <= 2+eps:
		return hpNear
	case diff <= 5+eps:
		return hpRough
	default:
		return 0
	}
}

// familyScore awards up to 30 points. Unknown-vs-Unknown is no signal, not
// a match. FourStroke and EFI are cross-compatible because EFI FourStrokes
// are routinely listed under either name.
func familyScore(a, b types.Family) int {
	if !a.IsKnown() || !b.IsKnown() {
		return 0
	}
	if a == b {
		return familyExact
	}
	if (a == types.FamilyFourStroke && b == types.FamilyEFI) ||
		(a == types.FamilyEFI && b == types.FamilyFourStroke) {
		return familyCross
	}
	al, bl := strings.ToLower(a.String()), strings.ToLower(b.String())
	if strings.Contains(al, bl) || strings.Contains(bl, al) {
		return familyContains
	}
	return 0
}

// flagScore awards up to 10 points for boolean flags that agree.
func flagScore(a, b types.Flags) int {
	score := 0
	for _, fw := range flagWeights {
		if fw.get(a) == fw.get(b) {
			score += fw.weight
		}
	}
	return score
}

// shaftScore awards the +5 bonus when both raw strings contain the same
// shaft-code token.
func shaftScore(rawListing, rawMotor string) int {
	a := parse.ShaftCode(rawListing)
	if a == "" {
		return 0
	}
	if a == parse.ShaftCode(rawMotor) {
		return shaftBonus
	}
	return 0
}

// Justify renders a human-readable explanation of a breakdown for preview
// output and review queue entries.
func Justify(b types.ScoreBreakdown) string {
	parts := make([]string, 0, 4)
	if b.Horsepower > 0 {
		parts = append(parts, fmt.Sprintf("hp +%d", b.Horsepower))
	}
	if b.Family > 0 {
		parts = append(parts, fmt.Sprintf("family +%d", b.Family))
	}
	if b.Flags > 0 {
		parts = append(parts, fmt.Sprintf("flags +%d", b.Flags))
	}
	if b.ShaftCode > 0 {
		parts = append(parts, fmt.Sprintf("shaft +%d", b.ShaftCode))
	}
	if len(parts) == 0 {
		return "no matching criteria"
	}
	return strings.Join(parts, ", ")
}
