package core

import (
	"fmt"
	"math/rand/v2"
)

// RegimeState is the phase of the one way crisis state machine Fresh -> InCrisis -> PostCrisis
type RegimeState int

const (
	Fresh RegimeState = iota
	InCrisis
	PostCrisis
)

func (s RegimeState) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case InCrisis:
		return "inCrisis"
	case PostCrisis:
		return "postCrisis"
	default:
		return fmt.Sprintf("RegimeState(%d)", int(s))
	}
}

// tuned against the 2007-2009 financial crisis
const (
	MinDayCrisisStarts           = 120
	MinDaysInCrisis              = 180
	MaxDaysInCrisis              = 540
	DailyProbabilityCrisisStarts = 0.01
	DailyProbabilityCrisisEnds   = 0.01
)

type CrisisSettings struct {
	MinDayCrisisStarts           int     `json:"minDayCrisisStarts"`
	MinDaysInCrisis              int     `json:"minDaysInCrisis"`
	MaxDaysInCrisis              int     `json:"maxDaysInCrisis"`
	DailyProbabilityCrisisStarts float64 `json:"dailyProbabilityCrisisStarts"`
	DailyProbabilityCrisisEnds   float64 `json:"dailyProbabilityCrisisEnds"`
}

func DefaultCrisisSettings() CrisisSettings {
	return CrisisSettings{
		MinDayCrisisStarts:           MinDayCrisisStarts,
		MinDaysInCrisis:              MinDaysInCrisis,
		MaxDaysInCrisis:              MaxDaysInCrisis,
		DailyProbabilityCrisisStarts: DailyProbabilityCrisisStarts,
		DailyProbabilityCrisisEnds:   DailyProbabilityCrisisEnds,
	}
}

func (cs CrisisSettings) Validate() error {
	if cs.MinDayCrisisStarts < 0 || cs.MinDaysInCrisis < 0 {
		return fmt.Errorf("%w: crisis day thresholds must be non negative", ErrInvalidArgument)
	}
	if cs.MaxDaysInCrisis < cs.MinDaysInCrisis {
		return fmt.Errorf("%w: max days in crisis (%d) is below the minimum (%d)", ErrInvalidArgument, cs.MaxDaysInCrisis, cs.MinDaysInCrisis)
	}
	for _, p := range []float64{cs.DailyProbabilityCrisisStarts, cs.DailyProbabilityCrisisEnds} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: crisis probabilities must be within [0, 1], got %v", ErrInvalidArgument, p)
		}
	}
	return nil
}

// CrisisRegimeSwitch decides day by day whether a run is in crisis. A run has at most
// one crisis: once it ends the switch stays in PostCrisis. It is owned by a single run.
type CrisisRegimeSwitch struct {
	settings     CrisisSettings
	rng          *rand.Rand
	state        RegimeState
	daysInCrisis int
	lastDay      int
}

func NewCrisisRegimeSwitch(settings CrisisSettings, rng *rand.Rand) (*CrisisRegimeSwitch, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}

	return &CrisisRegimeSwitch{settings: settings, rng: rng, lastDay: -1}, nil
}

func (c *CrisisRegimeSwitch) State() RegimeState {
	return c.state
}

func (c *CrisisRegimeSwitch) InCrisis() bool {
	return c.state == InCrisis
}

func (c *CrisisRegimeSwitch) DaysInCrisis() int {
	return c.daysInCrisis
}

// Advance moves the machine to dayIndex, it must be called once per day with increasing indexes
func (c *CrisisRegimeSwitch) Advance(dayIndex int) error {
	if dayIndex < 0 || dayIndex <= c.lastDay {
		return fmt.Errorf("%w: day index %d must be non negative and after %d", ErrInvalidArgument, dayIndex, c.lastDay)
	}
	c.lastDay = dayIndex

	switch c.state {
	case InCrisis:
		if c.crisisIsOver() {
			c.state = PostCrisis
			return nil
		}
		c.daysInCrisis++
	case Fresh:
		if c.crisisStarts(dayIndex) {
			c.state = InCrisis
		}
	case PostCrisis:
		// a crisis already happened in this run, no new one can start
	}

	return nil
}

func (c *CrisisRegimeSwitch) crisisIsOver() bool {
	if c.daysInCrisis < c.settings.MinDaysInCrisis {
		return false
	}
	return c.rng.Float64() <= c.settings.DailyProbabilityCrisisEnds || c.daysInCrisis >= c.settings.MaxDaysInCrisis
}

func (c *CrisisRegimeSwitch) crisisStarts(dayIndex int) bool {
	return dayIndex >= c.settings.MinDayCrisisStarts && c.rng.Float64() <= c.settings.DailyProbabilityCrisisStarts
}
