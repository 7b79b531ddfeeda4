// Package sweep evaluates D_AB over an evenly spaced grid of compositions.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// Config defines how sweeps are executed.
type Config struct {
	// Number of concurrent evaluation routines (0 means runtime.NumCPU()).
	Concurrency int
	// Upper bound on Request.Steps.
	MaxSteps int
}

// DefaultConfig returns the default sweep configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: runtime.NumCPU(),
		MaxSteps:    10000,
	}
}

// Request describes the grid: Steps equal intervals from From to To on xA,
// inclusive of both ends. xB is 1 - xA at every point.
type Request struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Steps int     `json:"steps"`
}

// Point is the outcome at one grid composition. Exactly one of Result and
// Error is set.
type Point struct {
	Composition domain.Composition `json:"composition"`
	Result      *domain.Result     `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	Kind        string             `json:"kind,omitempty"`
}

// Profile is the ordered set of points of a sweep.
type Profile struct {
	Request  Request       `json:"request"`
	Points   []Point       `json:"points"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// ErrInvalidRequest is returned for a malformed grid.
var ErrInvalidRequest = errors.New("invalid sweep request")

// Runner runs sweeps against one evaluator.
type Runner struct {
	evaluator ports.Evaluator
	logger    ports.Logger
	config    Config
}

// NewRunner creates a sweep runner.
func NewRunner(evaluator ports.Evaluator, logger ports.Logger, config Config) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultConfig().MaxSteps
	}
	return &Runner{
		evaluator: evaluator,
		logger:    logger,
		config:    config,
	}
}

// Validate checks req against the runner's limits.
func (r *Runner) Validate(req Request) error {
	// NaN bounds fail this comparison.
	if !(req.From >= 0 && req.To <= 1 && req.From < req.To) {
		return fmt.Errorf("%w: need 0 <= from < to <= 1, got from=%g to=%g", ErrInvalidRequest, req.From, req.To)
	}
	if req.Steps < 1 || req.Steps > r.config.MaxSteps {
		return fmt.Errorf("%w: steps must be between 1 and %d, got %d", ErrInvalidRequest, r.config.MaxSteps, req.Steps)
	}
	return nil
}

// Grid returns the xA values of req in ascending order.
func Grid(req Request) []float64 {
	xs := make([]float64, req.Steps+1)
	width := req.To - req.From
	for i := range xs {
		xs[i] = req.From + width*float64(i)/float64(req.Steps)
	}
	// Pin the last point exactly to To.
	xs[req.Steps] = req.To
	return xs
}

// Run evaluates every grid point. Per-point evaluation errors are recorded
// on the point; only an invalid request or context cancellation fails the
// whole sweep.
func (r *Runner) Run(ctx context.Context, req Request) (Profile, error) {
	if err := r.Validate(req); err != nil {
		return Profile{}, err
	}

	startTime := time.Now()
	xs := Grid(req)
	points := make([]Point, len(xs))

	r.logger.Debug("Starting composition sweep",
		"from", req.From,
		"to", req.To,
		"points", len(xs),
		"concurrency", r.config.Concurrency,
	)

	indices := make(chan int)
	var wg sync.WaitGroup
	workers := r.config.Concurrency
	if workers > len(xs) {
		workers = len(xs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				points[i] = r.evaluate(xs[i])
			}
		}()
	}

	var cancelled error
feed:
	for i := range xs {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if cancelled != nil {
		r.logger.Warn("Composition sweep cancelled", "error", cancelled)
		return Profile{}, cancelled
	}

	failed := 0
	for _, p := range points {
		if p.Error != "" {
			failed++
		}
	}

	profile := Profile{
		Request:  req,
		Points:   points,
		Failed:   failed,
		Duration: time.Since(startTime),
	}

	r.logger.Debug("Composition sweep completed",
		"points", len(points),
		"failed", failed,
		"duration", profile.Duration,
	)

	return profile, nil
}

func (r *Runner) evaluate(xA float64) Point {
	xB := 1 - xA
	p := Point{Composition: domain.Composition{XA: xA, XB: xB}}

	result, err := r.evaluator.Evaluate(xA, xB)
	if err != nil {
		p.Error = err.Error()
		p.Kind = domain.KindOf(err).String()
		return p
	}
	p.Result = &result
	return p
}
