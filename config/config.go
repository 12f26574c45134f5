package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	PeriodCrisis    = "crisis"
	PeriodNonCrisis = "non_crisis"

	DefaultConfigPath = "config.yml"
)

var ErrMissingKey = errors.New("missing configuration key")

// DistributionSpec names a fitted family and its parameter vector
type DistributionSpec struct {
	Name       string    `yaml:"name" json:"name"`
	Parameters []float64 `yaml:"parameters" json:"parameters"`
}

type PeriodConfig struct {
	Distribution *DistributionSpec `yaml:"distribution"`
}

// CrisisConfig overrides the tuned crisis regime constants, unset keys keep the defaults
type CrisisConfig struct {
	MinDayCrisisStarts           *int     `yaml:"min_day_crisis_starts"`
	MinDaysInCrisis              *int     `yaml:"min_days_in_crisis"`
	MaxDaysInCrisis              *int     `yaml:"max_days_in_crisis"`
	DailyProbabilityCrisisStarts *float64 `yaml:"daily_probability_crisis_starts"`
	DailyProbabilityCrisisEnds   *float64 `yaml:"daily_probability_crisis_ends"`
}

type Config struct {
	Crisis  CrisisConfig                       `yaml:"crisis"`
	Tickers map[string]map[string]PeriodConfig `yaml:"tickers"`
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}

	return Parse(content)
}

func Parse(content []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

// GetDistribution returns the distribution configured for a ticker during a period
func (c *Config) GetDistribution(ticker, period string) (DistributionSpec, error) {
	periods, ok := c.Tickers[ticker]
	if !ok {
		return DistributionSpec{}, fmt.Errorf("%w: ticker %s", ErrMissingKey, ticker)
	}

	pc, ok := periods[period]
	if !ok {
		return DistributionSpec{}, fmt.Errorf("%w: period %s for ticker %s", ErrMissingKey, period, ticker)
	}

	if pc.Distribution == nil {
		return DistributionSpec{}, fmt.Errorf("%w: distribution for %s/%s", ErrMissingKey, ticker, period)
	}

	return *pc.Distribution, nil
}

func (c *Config) GetDistributionParameters(ticker, period string) ([]float64, error) {
	spec, err := c.GetDistribution(ticker, period)
	if err != nil {
		return nil, err
	}

	return spec.Parameters, nil
}
