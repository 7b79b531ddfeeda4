package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// DecimalParser parses plain decimal or scientific notation. Hexadecimal
// floats, NaN and infinities are rejected.
type DecimalParser struct{}

// NewDecimalParser creates a new decimal parser.
func NewDecimalParser() ports.InputParser {
	return &DecimalParser{}
}

// Parse converts raw into a finite float64. Leading and trailing whitespace
// is ignored. Failures wrap domain.ErrParse.
func (p *DecimalParser) Parse(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: %s is empty", domain.ErrParse, field)
	}
	if strings.ContainsAny(s, "xXpP_") {
		return 0, fmt.Errorf("%w: %s = %q is not a decimal number", domain.ErrParse, field, raw)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q is not a decimal number", domain.ErrParse, field, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s = %q is not finite", domain.ErrParse, field, raw)
	}

	return v, nil
}
