package domain

import (
	"errors"
	"fmt"
	"math"
)

// SumTolerance is the absolute tolerance allowed on xA + xB = 1.
const SumTolerance = 1e-6

// Parameters holds the correlation constants for one binary pair A/B.
type Parameters struct {
	// Pure-component diffusivities at infinite dilution (cm²/s).
	D0A float64 `json:"d0_a" yaml:"d0_a"`
	D0B float64 `json:"d0_b" yaml:"d0_b"`
	// Volume fractions.
	PhiA float64 `json:"phi_a" yaml:"phi_a"`
	PhiB float64 `json:"phi_b" yaml:"phi_b"`
	// Structural parameters.
	LambdaA float64 `json:"lambda_a" yaml:"lambda_a"`
	LambdaB float64 `json:"lambda_b" yaml:"lambda_b"`
	// Surface-area parameters.
	QA float64 `json:"q_a" yaml:"q_a"`
	QB float64 `json:"q_b" yaml:"q_b"`
	// Local-area fractions.
	ThetaBA float64 `json:"theta_ba" yaml:"theta_ba"`
	ThetaBB float64 `json:"theta_bb" yaml:"theta_bb"`
	ThetaAB float64 `json:"theta_ab" yaml:"theta_ab"`
	ThetaAA float64 `json:"theta_aa" yaml:"theta_aa"`
	// Interaction parameters.
	TauBA float64 `json:"tau_ba" yaml:"tau_ba"`
	TauAB float64 `json:"tau_ab" yaml:"tau_ab"`
	// Reference diffusivity used for the percentage deviation (cm²/s).
	DABRef float64 `json:"d_ab_ref" yaml:"d_ab_ref"`
}

// DefaultParameters returns the built-in parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		D0A:     2.1e-5,
		D0B:     2.67e-5,
		PhiA:    0.279,
		PhiB:    0.721,
		LambdaA: 1.127,
		LambdaB: 0.973,
		QA:      1.432,
		QB:      1.4,
		ThetaBA: 0.612,
		ThetaBB: 0.739,
		ThetaAB: 0.261,
		ThetaAA: 0.388,
		TauBA:   0.5373,
		TauAB:   1.035,
		DABRef:  1.33e-5,
	}
}

// Validate checks that every constant is finite and that the values which
// appear under a logarithm or in a denominator are strictly positive.
func (p Parameters) Validate() error {
	named := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"d0_a", p.D0A, true},
		{"d0_b", p.D0B, true},
		{"phi_a", p.PhiA, true},
		{"phi_b", p.PhiB, true},
		{"lambda_a", p.LambdaA, true},
		{"lambda_b", p.LambdaB, true},
		{"q_a", p.QA, false},
		{"q_b", p.QB, false},
		{"theta_ba", p.ThetaBA, false},
		{"theta_bb", p.ThetaBB, false},
		{"theta_ab", p.ThetaAB, false},
		{"theta_aa", p.ThetaAA, false},
		{"tau_ba", p.TauBA, true},
		{"tau_ab", p.TauAB, true},
		{"d_ab_ref", p.DABRef, true},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("parameter %s must be finite", n.name)
		}
		if n.positive && n.value <= 0 {
			return fmt.Errorf("parameter %s must be greater than 0", n.name)
		}
	}
	return nil
}

// Composition is a pair of mole fractions for a two-component mixture.
type Composition struct {
	XA float64 `json:"xA"`
	XB float64 `json:"xB"`
}

// Terms holds the individual contributions to ln(D_AB).
type Terms struct {
	Term1 float64 `json:"term1"`
	Term2 float64 `json:"term2"`
	Term3 float64 `json:"term3"`
	Term4 float64 `json:"term4"`
	Term5 float64 `json:"term5"`
	LnDAB float64 `json:"ln_d_ab"`
}

// Result holds the outcome of one evaluation.
type Result struct {
	Composition  Composition `json:"composition"`
	DAB          float64     `json:"d_ab"`
	PercentError float64     `json:"percent_error"`
	Reference    float64     `json:"reference"`
	Terms        Terms       `json:"terms"`
}

// Error taxonomy.
var (
	ErrParse                = errors.New("invalid numeric input")
	ErrCompositionSum       = errors.New("mole fractions must sum to 1")
	ErrUnexpectedEvaluation = errors.New("unexpected evaluation error")

	// Causes wrapped by ErrUnexpectedEvaluation.
	ErrDivisionByZero = errors.New("float division by zero")
	ErrNonFinite      = errors.New("non-finite value")
)

// Kind classifies an evaluation error.
type Kind int

const (
	KindNone Kind = iota
	KindParse
	KindCompositionSum
	KindUnexpected
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindParse:
		return "parse_error"
	case KindCompositionSum:
		return "composition_sum_error"
	default:
		return "unexpected_evaluation_error"
	}
}

// KindOf reports which class of the taxonomy err belongs to. Errors that are
// neither parse nor composition errors are treated as unexpected.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrCompositionSum):
		return KindCompositionSum
	default:
		return KindUnexpected
	}
}

// UnexpectedError wraps cause as an unexpected evaluation error. The message
// is the cause's text so callers can show it verbatim.
func UnexpectedError(cause error) error {
	return &unexpectedError{cause: cause}
}

type unexpectedError struct {
	cause error
}

func (e *unexpectedError) Error() string { return e.cause.Error() }

func (e *unexpectedError) Unwrap() []error {
	return []error{ErrUnexpectedEvaluation, e.cause}
}
