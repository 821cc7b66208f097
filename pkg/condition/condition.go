package condition

// Overall is the derived condition label for an inspected asset.
type Overall string

const (
	OverallExcellent Overall = "excellent"
	OverallGood      Overall = "good"
	OverallFair      Overall = "fair"
	OverallPoor      Overall = "poor"
	OverallBroken    Overall = "broken"
)

var overallRank = map[Overall]int{
	OverallExcellent: 0,
	OverallGood:      1,
	OverallFair:      2,
	OverallPoor:      3,
	OverallBroken:    4,
}

// Rank orders labels from excellent (0) to broken (4).
func (o Overall) Rank() int {
	return overallRank[o]
}

// NotApplicable marks a checklist field that must be excluded from scoring.
const NotApplicable = "not_applicable"

// Checklist holds per-component condition codes. Empty fields are treated
// the same as NotApplicable.
type Checklist struct {
	Exterior     string `json:"exterior_condition,omitempty"`
	Screen       string `json:"screen_condition,omitempty"`
	ButtonsPorts string `json:"buttons_ports_condition,omitempty"`
	Keyboard     string `json:"keyboard_condition,omitempty"`
	Touchpad     string `json:"touchpad_condition,omitempty"`
	Battery      string `json:"battery_condition,omitempty"`
}

// severityByCode maps every known condition code to a 0-4 severity. Codes are
// shared across components: "cracked" scores the same whether it came from
// the screen or the exterior field. Unknown codes score 0 on purpose; an
// unrecognized code must never fail an inspection.
var severityByCode = map[string]int{
	"excellent":         0,
	"like_new":          0,
	"clean":             0,
	"good":              1,
	"minor_wear":        1,
	"light_scratches":   1,
	"fair":              2,
	"worn":              2,
	"scuffed":           2,
	"sticky_keys":       2,
	"dim":               2,
	"loose_hinge":       2,
	"poor":              3,
	"deep_scratches":    3,
	"screen_blemish":    3,
	"missing_keys":      3,
	"swollen":           3,
	"unresponsive":      3,
	"broken":            4,
	"cracked":           4,
	"structural_damage": 4,
	"non_functional":    4,
	"dead":              4,
}

// damageCodes is the fixed subset of codes that flag physical damage when
// they appear in the exterior, screen, buttons/ports or keyboard fields.
var damageCodes = map[string]bool{
	"structural_damage": true,
	"cracked":           true,
	"screen_blemish":    true,
	"non_functional":    true,
	"missing_keys":      true,
}

// Result is the output of scoring one checklist.
type Result struct {
	Overall     Overall
	DamageFound bool
}

// Score derives the overall condition and the damage flag from a checklist
// and an optional free-text damage description. Pure, no side effects.
func Score(list Checklist, damageDescription string) Result {
	scored := make([]int, 0, 6)
	for _, code := range []string{list.Exterior, list.Screen, list.ButtonsPorts, list.Keyboard, list.Touchpad, list.Battery} {
		if code == "" || code == NotApplicable {
			continue
		}
		scored = append(scored, severityByCode[code])
	}

	damage := damageDescription != ""
	for _, code := range []string{list.Exterior, list.Screen, list.ButtonsPorts, list.Keyboard} {
		if damageCodes[code] {
			damage = true
			break
		}
	}

	if len(scored) == 0 {
		return Result{Overall: OverallGood, DamageFound: damageDescription != ""}
	}

	max := 0
	sum := 0
	for _, severity := range scored {
		sum += severity
		if severity > max {
			max = severity
		}
	}
	avg := float64(sum) / float64(len(scored))

	var overall Overall
	switch {
	case max >= 4 || avg >= 3.5:
		overall = OverallBroken
	case max >= 3 || avg >= 2.5:
		overall = OverallPoor
	case avg >= 1.5:
		overall = OverallFair
	case avg >= 0.5:
		overall = OverallGood
	default:
		overall = OverallExcellent
	}

	return Result{Overall: overall, DamageFound: damage}
}
