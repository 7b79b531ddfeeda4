// Package vignes evaluates the Vignes/UNIFAC-type correlation for the
// binary diffusion coefficient D_AB:
//
//	ln D_AB = xB·ln D0A + xA·ln D0B
//	        + 2·(xA·ln(xA/φA) + xB·ln(xB/φB))
//	        + 2·xA·xB·[(φA/xA)(1 − λA/λB) + (φB/xB)(1 − λB/λA)]
//	        + xB·qA·[(1 − θBA²)·ln τBA + (1 − θBB²)·τAB·ln τAB]
//	        + xA·qB·[(1 − θAB²)·ln τAB + (1 − θAA²)·τBA·ln τBA]
package vignes

import (
	"fmt"
	"math"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// Evaluator computes D_AB for a fixed parameter set. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	params domain.Parameters
	logger ports.Logger
}

// NewEvaluator creates an evaluator bound to params.
func NewEvaluator(params domain.Parameters, logger ports.Logger) (*Evaluator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Evaluator{
		params: params,
		logger: logger,
	}, nil
}

// Parameters returns a copy of the parameter set.
func (e *Evaluator) Parameters() domain.Parameters {
	return e.params
}

// Evaluate checks the composition and computes D_AB with its deviation from
// the reference value.
func (e *Evaluator) Evaluate(xA, xB float64) (domain.Result, error) {
	e.logger.Debug("Starting diffusion coefficient evaluation",
		"xA", xA,
		"xB", xB,
	)

	if math.Abs(xA+xB-1) > domain.SumTolerance {
		e.logger.Debug("Composition rejected", "sum", xA+xB)
		return domain.Result{}, fmt.Errorf("%w: xA + xB = %g", domain.ErrCompositionSum, xA+xB)
	}

	// term3 divides by both mole fractions.
	if xA == 0 || xB == 0 {
		e.logger.Warn("Pure component composition", "xA", xA, "xB", xB)
		return domain.Result{}, domain.UnexpectedError(domain.ErrDivisionByZero)
	}

	terms := e.terms(xA, xB)
	dab := math.Exp(terms.LnDAB)
	percentError := math.Abs((dab-e.params.DABRef)/e.params.DABRef) * 100

	if !isFinite(terms.LnDAB) || !isFinite(dab) || !isFinite(percentError) {
		e.logger.Warn("Evaluation produced a non-finite value",
			"xA", xA,
			"xB", xB,
			"ln_d_ab", terms.LnDAB,
		)
		return domain.Result{}, domain.UnexpectedError(
			fmt.Errorf("%w: ln(D_AB) = %v at xA = %g, xB = %g", domain.ErrNonFinite, terms.LnDAB, xA, xB))
	}

	e.logger.Debug("Computed diffusion coefficient",
		"d_ab", dab,
		"percent_error", percentError,
		"ln_d_ab", terms.LnDAB,
	)

	return domain.Result{
		Composition:  domain.Composition{XA: xA, XB: xB},
		DAB:          dab,
		PercentError: percentError,
		Reference:    e.params.DABRef,
		Terms:        terms,
	}, nil
}

func (e *Evaluator) terms(xA, xB float64) domain.Terms {
	p := e.params

	t1 := xB*math.Log(p.D0A) + xA*math.Log(p.D0B)
	t2 := 2 * (xA*math.Log(xA/p.PhiA) + xB*math.Log(xB/p.PhiB))
	t3 := 2 * xA * xB * ((p.PhiA/xA)*(1-p.LambdaA/p.LambdaB) + (p.PhiB/xB)*(1-p.LambdaB/p.LambdaA))
	t4 := (xB * p.QA) * ((1-p.ThetaBA*p.ThetaBA)*math.Log(p.TauBA) + (1-p.ThetaBB*p.ThetaBB)*p.TauAB*math.Log(p.TauAB))
	t5 := (xA * p.QB) * ((1-p.ThetaAB*p.ThetaAB)*math.Log(p.TauAB) + (1-p.ThetaAA*p.ThetaAA)*p.TauBA*math.Log(p.TauBA))

	return domain.Terms{
		Term1: t1,
		Term2: t2,
		Term3: t3,
		Term4: t4,
		Term5: t5,
		LnDAB: t1 + t2 + t3 + t4 + t5,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
