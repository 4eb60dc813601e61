package matching

import (
	"regexp"
	"strings"

	"carriercheck/internal/domain"
)

// Policy names, as accepted by MATCH_POLICY.
const (
	PolicyExact   = "exact"
	PolicyOverlap = "overlap"
)

// Criteria is the normalized view of an intake, computed once per Match call.
type Criteria struct {
	origin       string
	destination  string
	equipment    string
	pickupDate   string
	hasPickup    bool
	originTokens []string
	destTokens   []string
}

func NewCriteria(in domain.Intake) Criteria {
	c := Criteria{
		origin:      fold(in.Origin),
		destination: fold(in.Destination),
		equipment:   fold(in.EquipmentType),
	}
	c.pickupDate, c.hasPickup = DateOnly(in.PickupDatetime)
	c.originTokens = tokens(c.origin)
	c.destTokens = tokens(c.destination)
	return c
}

// Policy scores one load. ok is false when the load is not a match.
type Policy interface {
	Score(c Criteria, load domain.Load) (score int, reasons []string, ok bool)
}

// PolicyByName resolves a configured policy, defaulting to ExactPolicy.
func PolicyByName(name string) Policy {
	if strings.EqualFold(strings.TrimSpace(name), PolicyOverlap) {
		return OverlapPolicy{}
	}
	return ExactPolicy{}
}

// ExactPolicy requires origin, destination and equipment to be equal after
// trimming and case folding, and the pickup to fall on the same calendar date.
// A missing intake value or an unparseable date never matches.
type ExactPolicy struct{}

var exactReasons = []string{
	"Origin exact",
	"Destination exact",
	"Pickup date exact",
	"Equipment exact",
}

func (ExactPolicy) Score(c Criteria, load domain.Load) (int, []string, bool) {
	if !c.hasPickup {
		return 0, nil, false
	}
	if d, ok := DateOnly(load.PickupDate); !ok || d != c.pickupDate {
		return 0, nil, false
	}
	if c.origin == "" || fold(load.Origin) != c.origin {
		return 0, nil, false
	}
	if c.destination == "" || fold(load.Destination) != c.destination {
		return 0, nil, false
	}
	if c.equipment == "" || fold(load.EquipmentType) != c.equipment {
		return 0, nil, false
	}
	reasons := make([]string, len(exactReasons))
	copy(reasons, exactReasons)
	return len(exactReasons), reasons, true
}

// OverlapPolicy awards partial credit: +3 when any origin token appears in the
// load origin, +3 likewise for destination, +2 when either equipment type
// contains the other. The pickup date must match when the intake date parses.
type OverlapPolicy struct{}

func (OverlapPolicy) Score(c Criteria, load domain.Load) (int, []string, bool) {
	loadDate, loadHasDate := DateOnly(load.PickupDate)
	if c.hasPickup && (!loadHasDate || loadDate != c.pickupDate) {
		return 0, nil, false
	}

	var (
		score   int
		reasons []string
	)
	if anyContained(c.originTokens, fold(load.Origin)) {
		score += 3
		reasons = append(reasons, "Origin match")
	}
	if anyContained(c.destTokens, fold(load.Destination)) {
		score += 3
		reasons = append(reasons, "Destination match")
	}
	if eq := fold(load.EquipmentType); c.equipment != "" &&
		(strings.Contains(eq, c.equipment) || strings.Contains(c.equipment, eq)) {
		score += 2
		reasons = append(reasons, "Equipment match")
	}
	if score == 0 {
		return 0, nil, false
	}
	if c.hasPickup {
		reasons = append(reasons, "Pickup date match")
	}
	return score, reasons, true
}

var tokenSplit = regexp.MustCompile(`[^a-z0-9]+`)

// tokens splits a folded string into alphanumeric words of two or more characters.
func tokens(s string) []string {
	var out []string
	for _, t := range tokenSplit.Split(s, -1) {
		if len(t) >= 2 {
			out = append(out, t)
		}
	}
	return out
}

func anyContained(toks []string, s string) bool {
	for _, t := range toks {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
