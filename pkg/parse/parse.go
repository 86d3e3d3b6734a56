// Package parse extracts structured motor attributes from free-text listing
// descriptions. Classification is rule-table driven: families and shaft
// codes are matched against ordered priority tables so adding a new family
// or code is additive, not invasive.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harborline/motorsync/pkg/types"
)

// familyRule maps a case-insensitive substring to a family. Rules are tried
// in order and the first match wins, so FourStroke outranks EFI for listings
// that contain both.
type familyRule struct {
	substring string
	family    types.Family
}

// familyRules is the classification priority table.
var familyRules = []familyRule{
	{"verado", types.FamilyVerado},
	{"pro xs", types.FamilyProXS},
	{"proxs", types.FamilyProXS},
	{"seapro", types.FamilySeaPro},
	{"sea pro", types.FamilySeaPro},
	{"fourstroke", types.FamilyFourStroke},
	{"four stroke", types.FamilyFourStroke},
	{"efi", types.FamilyEFI},
}

// shaftCodes is the shaft/configuration vocabulary, longest codes first so
// ELPT is not shadowed by EL and MLH is not shadowed by MH.
var shaftCodes = []string{"ELPT", "ELH", "EPT", "EXL", "MLH", "XXL", "EH", "EL", "MH", "XL"}

var (
	yearPrefixRe = regexp.MustCompile(`^\s*(19|20)\d{2}\s+`)
	hpSuffixRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*HP\b`)
	numTokenRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?)([A-Za-z]+)$`)
	leadingNumRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)$`)
)

// Parse extracts structured attributes from a raw listing string such as
// "2025 Mercury 9.9MH FourStroke EFI". A listing with no extractable
// horsepower yields a nil Horsepower, which makes it unscoreable on the
// dominant match criterion.
func Parse(raw string) types.Attributes {
	cleaned := clean(raw)
	lower := strings.ToLower(cleaned)

	attrs := types.Attributes{
		Horsepower: horsepower(cleaned),
		Family:     family(lower),
		ShaftCode:  ShaftCode(cleaned),
		Flags:      flags(lower),
	}
	return attrs
}

// clean strips year prefixes and decorative symbols from a listing.
func clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = yearPrefixRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("™", "", "®", "", "*", "", "†", "").Replace(s)
	return strings.TrimSpace(s)
}

// horsepower tries three extraction patterns in order and returns the first
// success: an explicit "<num>HP" marker, a number fused to a known shaft or
// model code token, then a bare leading number.
func horsepower(cleaned string) *float64 {
	if m := hpSuffixRe.FindStringSubmatch(cleaned); m != nil {
		if hp, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &hp
		}
	}

	for _, token := range strings.Fields(cleaned) {
		m := numTokenRe.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		if !isShaftToken(m[2]) {
			continue
		}
		if hp, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &hp
		}
	}

	fields := strings.Fields(cleaned)
	for _, token := range fields {
		if m := leadingNumRe.FindStringSubmatch(token); m != nil {
			if hp, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &hp
			}
		}
		// Only the leading numeric token counts; stop at the first word
		// that is not a manufacturer name.
		lower := strings.ToLower(token)
		if lower != "mercury" && lower != "new" {
			break
		}
	}

	return nil
}

// family classifies a lowercased listing against the priority table.
// Unknown carries no signal: Unknown-vs-Unknown never earns match points.
func family(lower string) types.Family {
	for _, rule := range familyRules {
		if strings.Contains(lower, rule.substring) {
			return rule.family
		}
	}
	return types.FamilyUnknown
}

// flags runs the independent substring tests. A listing can set any
// combination of flags.
func flags(lower string) types.Flags {
	return types.Flags{
		CommandThrust: strings.Contains(lower, "command thrust") || strings.Contains(lower, " ct"),
		Jet:           strings.Contains(lower, "jet"),
		EFI:           strings.Contains(lower, "efi"),
		ProKicker:     strings.Contains(lower, "prokicker") || strings.Contains(lower, "pro kicker"),
	}
}

// ShaftCode detects the shaft/configuration code in a raw listing by
// substring match against the fixed vocabulary. The first code found wins.
func ShaftCode(raw string) string {
	upper := strings.ToUpper(raw)
	for _, code := range shaftCodes {
		if strings.Contains(upper, code) {
			return code
		}
	}
	return ""
}

// isShaftToken reports whether a trailing letter run is (or starts with) a
// known shaft code, e.g. the "MH" in "9.9MH" or the "ELPT" in "115ELPT".
func isShaftToken(letters string) bool {
	upper := strings.ToUpper(letters)
	for _, code := range shaftCodes {
		if strings.HasPrefix(upper, code) {
			return true
		}
	}
	return false
}
