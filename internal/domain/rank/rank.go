// Package rank parses competitive rank labels and maps them to numeric tiers.
package rank

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownScale is returned by ScaleFor for an unrecognized scale name.
var ErrUnknownScale = errors.New("unknown rank scale")

// Base ranks in ascending order.
const (
	Iron      = "iron"
	Bronze    = "bronze"
	Silver    = "silver"
	Gold      = "gold"
	Platinum  = "platinum"
	Diamond   = "diamond"
	Ascendant = "ascendant"
	Immortal  = "immortal"
	Radiant   = "radiant"
)

const divisionsPerBase = 3

var bases = []string{Iron, Bronze, Silver, Gold, Platinum, Diamond, Ascendant, Immortal, Radiant}

// Rank is a parsed rank label. The zero value is the unknown rank.
type Rank struct {
	Base string
	// Division is 1..3 for divided bases and 0 for radiant.
	Division int
}

// Unknown is returned for labels that do not name a rank.
var Unknown = Rank{}

// IsKnown reports whether r names a real rank.
func (r Rank) IsKnown() bool { return r.Base != "" }

// Key returns the base rank name.
func (r Rank) Key() string { return r.Base }

// String returns the canonical label, e.g. "gold 2" or "radiant".
func (r Rank) String() string {
	switch {
	case !r.IsKnown():
		return "unknown"
	case r.Division == 0:
		return r.Base
	default:
		return r.Base + " " + strconv.Itoa(r.Division)
	}
}

// Parse normalizes a rank label such as "Gold 2", " gold2 " or "GOLD II".
// A label without a division means division 1. Anything unrecognized yields Unknown.
func Parse(label string) Rank {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return Unknown
	}

	var base, suffix string
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		base, suffix = splitNumeral(fields[0])
	case 2:
		base, suffix = fields[0], fields[1]
	default:
		return Unknown
	}

	idx := baseIndex(base)
	if idx == 0 {
		return Unknown
	}

	div := 1
	if suffix != "" {
		d, ok := parseNumeral(suffix)
		if !ok {
			return Unknown
		}
		div = d
	}

	if base == Radiant {
		if div != 1 {
			return Unknown
		}
		return Rank{Base: Radiant}
	}
	if div < 1 || div > divisionsPerBase {
		return Unknown
	}
	return Rank{Base: base, Division: div}
}

// splitNumeral splits "gold2" into "gold" and "2".
func splitNumeral(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func parseNumeral(s string) (int, bool) {
	switch s {
	case "i":
		return 1, true
	case "ii":
		return 2, true
	case "iii":
		return 3, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// baseIndex returns the 1-based position of base, or 0 when it is not a rank.
func baseIndex(base string) int {
	for i, b := range bases {
		if b == base {
			return i + 1
		}
	}
	return 0
}

// Scale maps ranks to integer tiers.
type Scale int

const (
	// Fine counts every division: iron 1 = 1 ... immortal 3 = 24, radiant = 25.
	Fine Scale = iota
	// Coarse counts base ranks only: iron = 1 ... radiant = 9.
	Coarse
)

// Tier returns the tier of r on this scale, or 0 for an unknown rank.
func (s Scale) Tier(r Rank) int {
	idx := baseIndex(r.Base)
	if idx == 0 {
		return 0
	}
	if s == Coarse {
		return idx
	}
	if r.Base == Radiant {
		return (idx-1)*divisionsPerBase + 1
	}
	return (idx-1)*divisionsPerBase + r.Division
}

// String returns the configuration name of the scale.
func (s Scale) String() string {
	if s == Coarse {
		return "coarse"
	}
	return "fine"
}

// ScaleFor resolves a configured scale name. Empty means Fine.
func ScaleFor(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fine":
		return Fine, nil
	case "coarse":
		return Coarse, nil
	default:
		return Fine, fmt.Errorf("%w: %s", ErrUnknownScale, name)
	}
}

// TierOf parses label and returns its tier on scale s.
func TierOf(label string, s Scale) int {
	return s.Tier(Parse(label))
}
