package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"mc.projecter/calendar"
	ex "mc.projecter/extensions"
	sm "mc.projecter/models"
	"mc.projecter/wallet"
)

// SavingsPlan invests InitialInvestment on Start and buys MonthlyContribution more on the first
// working day of every following month, the position moves on working days only
type SavingsPlan struct {
	Symbol              string
	Start               time.Time
	Days                int
	InitialInvestment   float64
	MonthlyContribution float64
	Normal              PercentageChangeDistribution
	Crisis              PercentageChangeDistribution // nil disables the crisis regime
	CrisisSettings      CrisisSettings
	Bounds              ChangeBounds
}

type SavingsPlanProjection struct {
	Days               []calendar.Day
	Countervalue       []float64
	Investment         []float64
	InCrisis           []bool
	ReturnOnInvestment float64
	Wallet             *wallet.Wallet
}

func ProjectSavingsPlan(rng *rand.Rand, plan SavingsPlan) (*SavingsPlanProjection, error) {
	if plan.Normal == nil {
		return nil, fmt.Errorf("%w: savings plan needs a distribution", ErrInvalidArgument)
	}
	if plan.MonthlyContribution < 0 {
		return nil, fmt.Errorf("%w: monthly contribution must be non negative, got %v", ErrInvalidArgument, plan.MonthlyContribution)
	}
	if err := plan.Bounds.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}

	days, err := calendar.DateRange(plan.Start, plan.Days)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var regime *CrisisRegimeSwitch
	if plan.Crisis != nil {
		if regime, err = NewCrisisRegimeSwitch(plan.CrisisSettings, rng); err != nil {
			return nil, err
		}
	}

	w := wallet.New()
	if err := w.Buy(plan.Symbol, plan.InitialInvestment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	res := &SavingsPlanProjection{
		Days:         days,
		Countervalue: make([]float64, len(days)),
		Investment:   make([]float64, len(days)),
		InCrisis:     make([]bool, len(days)),
		Wallet:       w,
	}

	for i, day := range days {
		dist := plan.Normal
		if regime != nil {
			if err := regime.Advance(i); err != nil {
				return nil, err
			}
			if regime.InCrisis() {
				dist = plan.Crisis
				res.InCrisis[i] = true
			}
		}

		if i > 0 && day.IsWorkingDay() {
			change, err := sampleOne(rng, dist)
			if err != nil {
				return nil, err
			}
			if err := w.ApplyPercentageValueChange(plan.Symbol, plan.Bounds.Apply(change)); err != nil {
				return nil, err
			}
		}

		if i > 0 && plan.MonthlyContribution > 0 && day.IsFirstWorkingDayOfMonth() {
			if err := w.Buy(plan.Symbol, plan.MonthlyContribution); err != nil {
				return nil, err
			}
		}

		res.Countervalue[i] = w.Countervalue()
		res.Investment[i] = w.Investment()
	}

	res.ReturnOnInvestment = w.ReturnOnInvestment()
	return res, nil
}

// RunSavingsPlan projects a savings plan into a configured ticker
func (sc *ServiceContext) RunSavingsPlan(req sm.SavingsPlanRequest) (res *sm.SavingsPlanResponse, err error) {
	start := time.Now()
	defer func() { sc.Metrics.observeProjection("savings", start, err) }()

	if sc.Config == nil {
		return nil, fmt.Errorf("%w: projection configuration is not loaded", ErrInvalidArgument)
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q: %v", ErrInvalidArgument, req.StartDate, err)
	}

	normal, crisis, err := tickerDistributions(sc.Config, req.Ticker, req.UseCrisis)
	if err != nil {
		return nil, err
	}
	crisisSettings, err := CrisisSettingsFromConfig(sc.Config.Crisis)
	if err != nil {
		return nil, err
	}

	seed := resolveSeed(req.Seed)
	projection, err := ProjectSavingsPlan(NewRand(uint64(seed), 0), SavingsPlan{
		Symbol:              req.Ticker,
		Start:               startDate,
		Days:                req.Days,
		InitialInvestment:   req.InitialInvestment,
		MonthlyContribution: req.MonthlyContribution,
		Normal:              normal,
		Crisis:              crisis,
		CrisisSettings:      crisisSettings,
		Bounds:              changeBoundsFromRequest(req.MinChange, req.MaxChange),
	})
	if err != nil {
		return nil, err
	}

	res = &sm.SavingsPlanResponse{
		Seed:               seed,
		Ticker:             req.Ticker,
		FinalCountervalue:  projection.Wallet.Countervalue(),
		FinalInvestment:    projection.Wallet.Investment(),
		ReturnOnInvestment: projection.ReturnOnInvestment,
		Dates:              make([]string, len(projection.Days)),
		Countervalue:       projection.Countervalue,
		Investment:         projection.Investment,
	}
	for i, day := range projection.Days {
		res.Dates[i] = day.String()
		if projection.InCrisis[i] {
			res.CrisisDays++
		}
	}

	log.Info().Str("ticker", req.Ticker).Int64("seed", seed).Str("from", ex.FmtShort(startDate)).Int("days", req.Days).
		Float64("roi", res.ReturnOnInvestment).Int("crisisDays", res.CrisisDays).Msg("Savings plan projected")

	return res, nil
}
