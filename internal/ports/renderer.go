package ports

import (
	"io"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
)

// PageRenderer renders the calculator's HTML pages.
type PageRenderer interface {
	Home(w io.Writer) error
	Form(w io.Writer, defaults domain.Composition) error
	Result(w io.Writer, result domain.Result) error
	// Error renders the page for a failed evaluation. detail is only shown
	// for unexpected errors.
	Error(w io.Writer, kind domain.Kind, detail string) error
}
