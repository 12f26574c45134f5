package models

import "github.com/guregu/null/v6"

// DistributionPayload is an inline distribution, Name is a family ("norm", "nct", ...) or "empirical"
type DistributionPayload struct {
	Name       string    `json:"name"`
	Parameters []float64 `json:"parameters"`
}

// ProjectionRequestSettings will be the request from the front end to the projection controller
type ProjectionRequestSettings struct {
	Ticker             string  `json:"ticker"`
	StartingValue      float64 `json:"startingValue"`
	SimulationDuration int     `json:"simulationDuration"` // number of daily observations, starting value included
	Iterations         int     `json:"iterations"`
	UseCrisis          bool    `json:"useCrisis"`

	Seed      null.Int   `json:"seed"`      // absent picks a random seed, reported in the response
	MinChange null.Float `json:"minChange"` // defaults to -0.25
	MaxChange null.Float `json:"maxChange"` // defaults to 0.25
}

// ProjectionResponse will be the response from the projection controller and what is sent to the front end
type ProjectionResponse struct {
	RunId       string                `json:"runId"`
	Ticker      string                `json:"ticker"`
	Seed        int64                 `json:"seed"`
	RiskMetrics SimulationRiskMetrics `json:"riskMetrics"`
	Regime      RegimeStats           `json:"regime"`
	SamplePaths []SamplePath          `json:"samplePaths"`
	Summary     SimulationStats       `json:"simulationStats"`
}

// SimulationRiskMetrics will be numbers on the page when looking at projection results
type SimulationRiskMetrics struct {
	VaR95             float64 `json:"var95"`
	VaR99             float64 `json:"var99"`
	CVaR95            float64 `json:"cvar95"`
	CVaR99            float64 `json:"cvar99"`
	ProbabilityOfLoss float64 `json:"probabilityOfLoss"`
	MaxDrawdownP95    float64 `json:"maxDrawdownP95"`
	MeanFinalValue    float64 `json:"meanFinalValue"`
	MedianFinalValue  float64 `json:"medianFinalValue"`
}

// RegimeStats describes how often the crisis regime showed up across paths
type RegimeStats struct {
	CrisisProbability float64 `json:"crisisProbability"`
	MeanCrisisDays    float64 `json:"meanCrisisDays"`
}

// SamplePath will show the user a few of the paths the position took
type SamplePath struct {
	Percentile float64   `json:"percentile"`
	Values     []float64 `json:"values"`
	Label      string    `json:"label"`
}

// SimulationStats will show the user bands for the timeseries of value
type SimulationStats struct {
	Mean   []float64 `json:"mean"`
	StdDev []float64 `json:"stdDev"`
	P5     []float64 `json:"p5"`
	P25    []float64 `json:"p25"`
	P50    []float64 `json:"p50"`
	P75    []float64 `json:"p75"`
	P95    []float64 `json:"p95"`
}

// SimulatePathRequest runs a single path, either for a configured ticker or an inline distribution
type SimulatePathRequest struct {
	Ticker       null.String          `json:"ticker"`
	Distribution *DistributionPayload `json:"distribution"`

	StartingValue float64    `json:"startingValue"`
	Observations  int        `json:"observations"`
	UseCrisis     bool       `json:"useCrisis"`
	Seed          null.Int   `json:"seed"`
	MinChange     null.Float `json:"minChange"`
	MaxChange     null.Float `json:"maxChange"`
}

type SimulatePathResponse struct {
	Seed     int64     `json:"seed"`
	Values   []float64 `json:"values"`
	InCrisis []bool    `json:"inCrisis"`
}

// FitRequest fits one family when Family is set, otherwise selects the best candidate
type FitRequest struct {
	Data   []float64   `json:"data"`
	Family null.String `json:"family"`
}

type CandidateFit struct {
	Family     string    `json:"family"`
	Parameters []float64 `json:"parameters"`
	Statistic  float64   `json:"statistic"`
	PValue     float64   `json:"pValue"`
	Error      string    `json:"error,omitempty"`
}

type FitResponse struct {
	Family     string         `json:"family"`
	PValue     null.Float     `json:"pValue"`
	Parameters []float64      `json:"parameters"`
	Candidates []CandidateFit `json:"candidates,omitempty"`
}

// SavingsPlanRequest projects a monthly savings plan into one configured ticker
type SavingsPlanRequest struct {
	Ticker              string  `json:"ticker"`
	StartDate           string  `json:"startDate"` // 2006-01-02
	Days                int     `json:"days"`      // calendar days, weekends keep the position unchanged
	InitialInvestment   float64 `json:"initialInvestment"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	UseCrisis           bool    `json:"useCrisis"`

	Seed      null.Int   `json:"seed"`
	MinChange null.Float `json:"minChange"`
	MaxChange null.Float `json:"maxChange"`
}

type SavingsPlanResponse struct {
	Seed               int64     `json:"seed"`
	Ticker             string    `json:"ticker"`
	FinalCountervalue  float64   `json:"finalCountervalue"`
	FinalInvestment    float64   `json:"finalInvestment"`
	ReturnOnInvestment float64   `json:"returnOnInvestment"`
	CrisisDays         int       `json:"crisisDays"`
	Dates              []string  `json:"dates"`
	Countervalue       []float64 `json:"countervalue"`
	Investment         []float64 `json:"investment"`
}
