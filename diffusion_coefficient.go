// diffusion_coefficient.go
// Package diffusioncoefficient computes the binary diffusion coefficient D_AB
// of a two-component mixture from the Vignes/UNIFAC-type correlation and
// reports its percentage deviation from a reference value:
//
//	D_AB          = exp(term1 + term2 + term3 + term4 + term5)
//	percent_error = |D_AB - D_AB_ref| / D_AB_ref * 100
//
// A Calculator is built once from a fixed parameter set using functional
// options and is safe for concurrent use.
package diffusioncoefficient

import (
	"context"
	"io"
	"time"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/batch"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/metrics"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/parser"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/vignes"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/sweep"
	"github.com/baditaflorin/l"
)

// Re-exported domain types.
type (
	Parameters   = domain.Parameters
	Composition  = domain.Composition
	Terms        = domain.Terms
	Result       = domain.Result
	Kind         = domain.Kind
	SweepRequest = sweep.Request
	SweepPoint   = sweep.Point
	SweepProfile = sweep.Profile
	BatchLine    = batch.Line
	BatchSummary = batch.Summary
)

// Error taxonomy. Use errors.Is or KindOf to classify.
var (
	ErrParse                = domain.ErrParse
	ErrCompositionSum       = domain.ErrCompositionSum
	ErrUnexpectedEvaluation = domain.ErrUnexpectedEvaluation
	ErrDivisionByZero       = domain.ErrDivisionByZero
	ErrNonFinite            = domain.ErrNonFinite
	ErrInvalidSweep         = sweep.ErrInvalidRequest
)

// Error kinds.
const (
	KindNone           = domain.KindNone
	KindParse          = domain.KindParse
	KindCompositionSum = domain.KindCompositionSum
	KindUnexpected     = domain.KindUnexpected
)

// KindOf classifies an error returned by a Calculator.
func KindOf(err error) Kind {
	return domain.KindOf(err)
}

// DefaultParameters returns the built-in parameter set.
func DefaultParameters() Parameters {
	return domain.DefaultParameters()
}

// Calculator evaluates D_AB for one frozen parameter set.
type Calculator struct {
	evaluator  *vignes.Evaluator
	parser     ports.InputParser
	sweeper    *sweep.Runner
	batch      *batch.Processor
	metrics    *metrics.Metrics
	logger     ports.Logger
	ownsLogger bool
}

// Option defines a functional option for configuring a Calculator.
type Option func(*calculatorConfig)

type calculatorConfig struct {
	Parameters  Parameters
	Logger      ports.Logger
	Parser      ports.InputParser
	Metrics     *metrics.Metrics
	SweepConfig sweep.Config
}

// WithParameters replaces the built-in parameter set.
func WithParameters(p Parameters) Option {
	return func(cfg *calculatorConfig) {
		cfg.Parameters = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg l.Logger) Option {
	return func(cfg *calculatorConfig) {
		cfg.Logger = logger.FromExisting(lg)
	}
}

// WithPortsLogger sets a logger already adapted to the internal interface.
func WithPortsLogger(lg ports.Logger) Option {
	return func(cfg *calculatorConfig) {
		cfg.Logger = lg
	}
}

// WithParser replaces the decimal input parser used by EvaluateStrings and
// Batch.
func WithParser(p ports.InputParser) Option {
	return func(cfg *calculatorConfig) {
		cfg.Parser = p
	}
}

// WithQuietLogger discards all log output.
func WithQuietLogger() Option {
	return func(cfg *calculatorConfig) {
		cfg.Logger = logger.NewNopLogger()
	}
}

// WithMetrics records evaluations into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *calculatorConfig) {
		cfg.Metrics = m
	}
}

// WithSweepConcurrency bounds the number of goroutines used by Sweep.
func WithSweepConcurrency(n int) Option {
	return func(cfg *calculatorConfig) {
		cfg.SweepConfig.Concurrency = n
	}
}

// WithSweepMaxSteps bounds SweepRequest.Steps.
func WithSweepMaxSteps(n int) Option {
	return func(cfg *calculatorConfig) {
		cfg.SweepConfig.MaxSteps = n
	}
}

// New creates a Calculator. If no logger is provided, a default stdout
// logger is created and closed by Close.
func New(opts ...Option) (*Calculator, error) {
	config := &calculatorConfig{
		Parameters:  domain.DefaultParameters(),
		SweepConfig: sweep.DefaultConfig(),
	}

	for _, opt := range opts {
		opt(config)
	}

	ownsLogger := false
	if config.Logger == nil {
		var err error
		config.Logger, err = createDefaultLogger()
		if err != nil {
			return nil, err
		}
		ownsLogger = true
	}

	if config.Parser == nil {
		config.Parser = parser.NewDecimalParser()
	}

	evaluator, err := vignes.NewEvaluator(config.Parameters, config.Logger)
	if err != nil {
		if ownsLogger {
			_ = config.Logger.Close()
		}
		return nil, err
	}

	return &Calculator{
		evaluator:  evaluator,
		parser:     config.Parser,
		sweeper:    sweep.NewRunner(evaluator, config.Logger, config.SweepConfig),
		batch:      batch.NewProcessor(evaluator, config.Parser, config.Logger),
		metrics:    config.Metrics,
		logger:     config.Logger,
		ownsLogger: ownsLogger,
	}, nil
}

// Evaluate computes D_AB for the composition (xA, xB).
func (c *Calculator) Evaluate(xA, xB float64) (Result, error) {
	startTime := time.Now()
	result, err := c.evaluator.Evaluate(xA, xB)
	if c.metrics != nil {
		c.metrics.RecordEvaluation(err, time.Since(startTime))
	}
	return result, err
}

// EvaluateStrings parses decimal strings and evaluates them.
func (c *Calculator) EvaluateStrings(xA, xB string) (Result, error) {
	a, err := c.parser.Parse("xA", xA)
	if err == nil {
		var b float64
		b, err = c.parser.Parse("xB", xB)
		if err == nil {
			return c.Evaluate(a, b)
		}
	}
	if c.metrics != nil {
		c.metrics.RecordEvaluation(err, 0)
	}
	return Result{}, err
}

// Sweep evaluates D_AB over an evenly spaced grid of xA values.
func (c *Calculator) Sweep(ctx context.Context, req SweepRequest) (SweepProfile, error) {
	profile, err := c.sweeper.Run(ctx, req)
	if err == nil && c.metrics != nil {
		c.metrics.RecordSweep(len(profile.Points))
	}
	return profile, err
}

// Batch evaluates "xA,xB" lines read from r.
func (c *Calculator) Batch(ctx context.Context, r io.Reader, emit func(BatchLine) error) (BatchSummary, error) {
	return c.batch.Process(ctx, r, emit)
}

// Parser returns the parser used by EvaluateStrings and Batch.
func (c *Calculator) Parser() ports.InputParser {
	return c.parser
}

// Parameters returns the frozen parameter set.
func (c *Calculator) Parameters() Parameters {
	return c.evaluator.Parameters()
}

// Close releases the logger if the Calculator created it.
func (c *Calculator) Close() error {
	if c.ownsLogger {
		return c.logger.Close()
	}
	return nil
}

// EvaluateWithDefaults evaluates with the built-in parameters and no logging.
func EvaluateWithDefaults(xA, xB float64) (Result, error) {
	c, err := New(WithQuietLogger())
	if err != nil {
		return Result{}, err
	}
	return c.Evaluate(xA, xB)
}
