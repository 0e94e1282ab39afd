package domain

import (
	"fmt"
	"strings"
)

// CompetitionScenario selects the shock applied to the competitor's base price.
type CompetitionScenario string

// Competition scenario constants
const (
	CompetitionActual CompetitionScenario = "actual"
	CompetitionLower  CompetitionScenario = "lower"
	CompetitionHigher CompetitionScenario = "higher"
)

// CompetitionScenarios lists every scenario in comparison order (baseline first).
var CompetitionScenarios = []CompetitionScenario{
	CompetitionActual,
	CompetitionLower,
	CompetitionHigher,
}

// Discount adjustment bounds accepted by default, in percent.
const (
	DefaultDiscountMin = -50.0
	DefaultDiscountMax = 50.0
)

// Valid reports whether c is a known scenario.
func (c CompetitionScenario) Valid() bool {
	switch c {
	case CompetitionActual, CompetitionLower, CompetitionHigher:
		return true
	default:
		return false
	}
}

// CompetitorMultiplier returns the multiplicative shock for the competitor base price.
// Unknown scenarios leave the price unchanged; callers validate before running.
func (c CompetitionScenario) CompetitorMultiplier() float64 {
	switch c {
	case CompetitionLower:
		return 0.95
	case CompetitionHigher:
		return 1.05
	default:
		return 1.0
	}
}

// Label returns a human-readable name used in reports.
func (c CompetitionScenario) Label() string {
	switch c {
	case CompetitionActual:
		return "Actual (0%)"
	case CompetitionLower:
		return "Competition -5%"
	case CompetitionHigher:
		return "Competition +5%"
	default:
		return string(c)
	}
}

// ParseCompetitionScenario parses a scenario name, case-insensitively.
func ParseCompetitionScenario(s string) (CompetitionScenario, error) {
	c := CompetitionScenario(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown competition scenario %q (want actual, lower or higher)", s)
	}
	return c, nil
}

// ScenarioConfig is the immutable parameterization of one engine run.
type ScenarioConfig struct {
	DiscountPct float64             // applied multiplicatively to base price, e.g. -50..+50
	Competition CompetitionScenario // competitor price shock
}

// ID returns a stable identifier such as "lower_disc+20".
func (s ScenarioConfig) ID() string {
	return fmt.Sprintf("%s_disc%+g", s.Competition, s.DiscountPct)
}
