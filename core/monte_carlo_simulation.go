package core

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	ex "mc.projecter/extensions"
	sm "mc.projecter/models"
)

const (
	Workers   = 8
	BatchSize = 10_000
)

type ProjectionResult struct {
	PathMetrics
	PathValues []float64
}

type job struct {
	start int
	end   int // exclusive
}

func GetNumberOfJobsAndWorkers(iterations int, batchSize int, workers int) ([]job, int) {
	// take the total number of simulations and divide it by the batch size, round up to get the total number of batches
	nJobs := int(math.Ceil(float64(iterations) / float64(batchSize)))

	// we have a max number of workers, so we take the minimum of the number of jobs and the number of workers
	nWorkers := ex.Min(nJobs, workers)

	// jobs will store what index the job starts and ends at, truncating the last job to number of iterations if needed
	jobs := make([]job, nJobs)
	for i := range nJobs {
		jobs[i] = job{
			start: i * batchSize,
			end:   ex.Min((i+1)*batchSize, iterations),
		}
	}

	return jobs, nWorkers
}

// RunMonteCarloProjection simulates settings.Iterations independent paths. Every job seeds its own
// generator from (seed, job start) so results do not depend on which worker picked the job up.
func (sc *ServiceContext) RunMonteCarloProjection(resources *ProjectionResources, settings sm.ProjectionRequestSettings, seed int64) ([]*ProjectionResult, error) {
	if settings.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidArgument, settings.Iterations)
	}
	if settings.SimulationDuration < 1 {
		return nil, fmt.Errorf("%w: simulation duration must be at least 1, got %d", ErrInvalidArgument, settings.SimulationDuration)
	}
	if !(resources.StartingValue > 0) {
		return nil, fmt.Errorf("%w: starting value must be positive, got %v", ErrInvalidArgument, resources.StartingValue)
	}

	res := make([]*ProjectionResult, settings.Iterations)
	jobs, nWorkers := GetNumberOfJobsAndWorkers(settings.Iterations, BatchSize, Workers)

	log.Info().
		Int("duration", settings.SimulationDuration).
		Int("paths", settings.Iterations).
		Int("batchSize", BatchSize).
		Int("workers", nWorkers).
		Bool("crisis", resources.Crisis != nil).
		Int64("seed", seed).
		Msg("Starting monte carlo projection")

	// workers steal jobs from this channel as they finish other jobs
	jobsChannel := make(chan job, len(jobs))
	for _, v := range jobs {
		jobsChannel <- v
	}
	close(jobsChannel)

	// deriving from the service context cancels the workers with the request,
	// a failing worker cancels its siblings without touching the caller's context
	g, ctx := errgroup.WithContext(sc.Context)

	for range nWorkers {
		g.Go(func() error {
			for j := range jobsChannel {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				rng := NewRand(uint64(seed), uint64(j.start))
				for sim := j.start; sim < j.end; sim++ {
					r, err := simulateProjectionPath(rng, resources, settings.SimulationDuration)
					if err != nil {
						log.Error().Err(err).Int("path", sim).Msg("error simulating projection path")
						return err
					}
					res[sim] = r
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

func simulateProjectionPath(rng *rand.Rand, resources *ProjectionResources, nObservations int) (*ProjectionResult, error) {
	if resources.Crisis == nil {
		values, err := SimulateSharePrice(rng, resources.StartingValue, resources.Normal, nObservations, resources.Bounds)
		if err != nil {
			return nil, err
		}
		return &ProjectionResult{PathMetrics: calculatePathMetrics(values, sm.Daily), PathValues: values}, nil
	}

	regime, err := NewCrisisRegimeSwitch(resources.CrisisSettings, rng)
	if err != nil {
		return nil, err
	}

	path, err := SimulateRegimeSharePrice(rng, resources.StartingValue, resources.Normal, resources.Crisis, regime, nObservations, resources.Bounds)
	if err != nil {
		return nil, err
	}

	metrics := calculatePathMetrics(path.Values, sm.Daily)
	metrics.CrisisDays = path.CrisisDays()
	return &ProjectionResult{PathMetrics: metrics, PathValues: path.Values}, nil
}
