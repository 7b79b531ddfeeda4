package ports

import (
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
)

// Evaluator defines the interface for computing D_AB from a composition.
type Evaluator interface {
	Evaluate(xA, xB float64) (domain.Result, error)
	Parameters() domain.Parameters
}
