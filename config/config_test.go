package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
crisis:
  min_day_crisis_starts: 60
tickers:
  SP500:
    crisis:
      distribution:
        name: nct
        parameters: [2.1, -0.1, 0.05, 1.4]
    non_crisis:
      distribution:
        name: norm
        parameters: [0.05, 1.0]
  AAPL:
    non_crisis: {}
`

func TestGetDistributionParameters(t *testing.T) {
	cfg, err := Parse([]byte(testConfig))
	require.NoError(t, err)

	params, err := cfg.GetDistributionParameters("SP500", PeriodCrisis)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.1, -0.1, 0.05, 1.4}, params)

	spec, err := cfg.GetDistribution("SP500", PeriodNonCrisis)
	require.NoError(t, err)
	assert.Equal(t, "norm", spec.Name)

	require.NotNil(t, cfg.Crisis.MinDayCrisisStarts)
	assert.Equal(t, 60, *cfg.Crisis.MinDayCrisisStarts)
	assert.Nil(t, cfg.Crisis.MaxDaysInCrisis)
}

func TestExplicitZeroIsKeptApartFromUnset(t *testing.T) {
	cfg, err := Parse([]byte("crisis:\n  daily_probability_crisis_starts: 0\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.Crisis.DailyProbabilityCrisisStarts)
	assert.Zero(t, *cfg.Crisis.DailyProbabilityCrisisStarts)
	assert.Nil(t, cfg.Crisis.DailyProbabilityCrisisEnds)
}

func TestMissingKeys(t *testing.T) {
	cfg, err := Parse([]byte(testConfig))
	require.NoError(t, err)

	_, err = cfg.GetDistributionParameters("MSFT", PeriodCrisis)
	require.ErrorIs(t, err, ErrMissingKey)

	_, err = cfg.GetDistributionParameters("AAPL", PeriodCrisis)
	require.ErrorIs(t, err, ErrMissingKey)

	_, err = cfg.GetDistributionParameters("AAPL", PeriodNonCrisis)
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Tickers, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestParseRejectsInvalidYaml(t *testing.T) {
	_, err := Parse([]byte("tickers: [unterminated"))
	require.Error(t, err)
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("PROJECTER_ADDR", ":9090")
	t.Setenv("PROJECTER_CONFIG", "")

	env := LoadEnvironment()
	assert.Equal(t, ":9090", env.Addr)
	assert.Equal(t, DefaultConfigPath, env.ConfigPath)
}
