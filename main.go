package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mc.projecter/config"
	c "mc.projecter/core"
	sm "mc.projecter/models"
)

var (
	env config.Environment

	fitInput  string
	fitFamily string
	fitPrices bool

	simTicker   string
	simDays     int
	simStart    float64
	simSeed     int64
	simCrisis   bool
	simPaths    int
	simMinMax   []float64
	savingsDate string
	savingsInit float64
	savingsMon  float64
)

var rootCmd = &cobra.Command{
	Use:   "projecter",
	Short: "Savings plan projecter",
	Long: `Projects the future value of a stock position by simulating daily percentage
changes drawn from fitted distributions, optionally switching to a crisis regime.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env = config.LoadEnvironment()
		env.ConfigureLogging()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the projection http server",
	RunE:  runServe,
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit distributions to historical percentage changes",
	Long: `Reads one observation per line (first csv column) and prints the best fitting
distribution, or the parameters of --family when given.

Example usage:
  projecter fit --input sp500.csv --prices        # closing prices, converted to changes
  projecter fit --input changes.csv --family nct  # non-central t parameters only`,
	RunE: runFit,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a configured ticker, a single path or a monte carlo projection with --paths",
	RunE:  runSimulate,
}

var savingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Project a monthly savings plan into a configured ticker",
	RunE:  runSavings,
}

func init() {
	rootCmd.AddCommand(serveCmd, fitCmd, simulateCmd, savingsCmd)

	fitCmd.Flags().StringVar(&fitInput, "input", "", "csv file with one observation per line")
	fitCmd.Flags().StringVar(&fitFamily, "family", "", "fit a single family instead of selecting the best one")
	fitCmd.Flags().BoolVar(&fitPrices, "prices", false, "input holds prices, convert them to percentage changes")
	_ = fitCmd.MarkFlagRequired("input")

	for _, cmd := range []*cobra.Command{simulateCmd, savingsCmd} {
		cmd.Flags().StringVar(&simTicker, "ticker", "", "ticker configured in the projection config")
		cmd.Flags().IntVar(&simDays, "days", sm.Daily, "number of days to simulate")
		cmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed, 0 picks one")
		cmd.Flags().BoolVar(&simCrisis, "crisis", false, "enable the crisis regime")
		cmd.Flags().Float64SliceVar(&simMinMax, "bounds", []float64{-0.25, 0.25}, "min,max clamp of a daily fractional change")
		_ = cmd.MarkFlagRequired("ticker")
	}
	simulateCmd.Flags().Float64Var(&simStart, "start", 100, "starting value")
	simulateCmd.Flags().IntVar(&simPaths, "paths", 1, "number of monte carlo paths")
	savingsCmd.Flags().StringVar(&savingsDate, "start-date", time.Now().Format(time.DateOnly), "first day of the plan")
	savingsCmd.Flags().Float64Var(&savingsInit, "initial", 1000, "initial investment")
	savingsCmd.Flags().Float64Var(&savingsMon, "monthly", 100, "monthly contribution")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		return err
	}

	sc := c.ServiceContext{
		Context: ctx,
		Config:  cfg,
		Metrics: c.NewMetrics(),
	}

	s := c.GetHttpServer(sc, env.Addr)

	go func() {
		log.Info().Str("addr", s.Addr).Msg("Starting projecter server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// this gives the server 10 seconds to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped successfully")
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	f, err := os.Open(fitInput)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := readObservations(f)
	if err != nil {
		return err
	}

	if fitPrices {
		if data, err = c.PercentageChanges(data); err != nil {
			return err
		}
	}

	sc := c.ServiceContext{Context: cmd.Context()}
	req := sm.FitRequest{Data: data}
	if fitFamily != "" {
		req.Family = null.StringFrom(fitFamily)
	}

	res, err := sc.FitDistribution(req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := loadServiceContext(cmd)
	if err != nil {
		return err
	}

	minChange, maxChange, err := boundsFlag()
	if err != nil {
		return err
	}

	if simPaths > 1 {
		res, err := sc.RunProjection(sm.ProjectionRequestSettings{
			Ticker:             simTicker,
			StartingValue:      simStart,
			SimulationDuration: simDays,
			Iterations:         simPaths,
			UseCrisis:          simCrisis,
			Seed:               seedFlag(),
			MinChange:          minChange,
			MaxChange:          maxChange,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res.RiskMetrics)
	}

	res, err := sc.SimulatePath(sm.SimulatePathRequest{
		Ticker:        null.StringFrom(simTicker),
		StartingValue: simStart,
		Observations:  simDays,
		UseCrisis:     simCrisis,
		Seed:          seedFlag(),
		MinChange:     minChange,
		MaxChange:     maxChange,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runSavings(cmd *cobra.Command, args []string) error {
	sc, err := loadServiceContext(cmd)
	if err != nil {
		return err
	}

	minChange, maxChange, err := boundsFlag()
	if err != nil {
		return err
	}

	res, err := sc.RunSavingsPlan(sm.SavingsPlanRequest{
		Ticker:              simTicker,
		StartDate:           savingsDate,
		Days:                simDays,
		InitialInvestment:   savingsInit,
		MonthlyContribution: savingsMon,
		UseCrisis:           simCrisis,
		Seed:                seedFlag(),
		MinChange:           minChange,
		MaxChange:           maxChange,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func loadServiceContext(cmd *cobra.Command) (*c.ServiceContext, error) {
	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		return nil, err
	}
	return &c.ServiceContext{Context: cmd.Context(), Config: cfg}, nil
}

func seedFlag() null.Int {
	if simSeed == 0 {
		return null.Int{}
	}
	return null.IntFrom(simSeed)
}

func boundsFlag() (null.Float, null.Float, error) {
	if len(simMinMax) != 2 {
		return null.Float{}, null.Float{}, fmt.Errorf("--bounds takes min,max, got %v", simMinMax)
	}
	return null.FloatFrom(simMinMax[0]), null.FloatFrom(simMinMax[1]), nil
}

// readObservations parses the first column of every row, a non numeric first row is a header
func readObservations(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var res []float64
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		res = append(res, v)
	}
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
