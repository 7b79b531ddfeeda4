// Package batch evaluates compositions read line by line from a stream.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// DefaultMaxLineSize bounds a single input line.
const DefaultMaxLineSize = 64 * 1024

// Line is the outcome for one input line.
type Line struct {
	Number int            `json:"line"`
	Input  string         `json:"input"`
	Result *domain.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   string         `json:"kind,omitempty"`
}

// Summary totals a batch run.
type Summary struct {
	Evaluated int `json:"evaluated"`
	Failed    int `json:"failed"`
}

// Processor reads "xA,xB" lines. Blank lines and lines starting with '#'
// are skipped. Fields may be separated by a comma, a semicolon or
// whitespace.
type Processor struct {
	evaluator ports.Evaluator
	parser    ports.InputParser
	logger    ports.Logger
}

// NewProcessor creates a batch processor.
func NewProcessor(evaluator ports.Evaluator, parser ports.InputParser, logger ports.Logger) *Processor {
	return &Processor{
		evaluator: evaluator,
		parser:    parser,
		logger:    logger,
	}
}

// Process evaluates every line of r and hands each outcome to emit in input
// order. It stops early if ctx is done or emit returns an error.
func (p *Processor) Process(ctx context.Context, r io.Reader, emit func(Line) error) (Summary, error) {
	var summary Summary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), DefaultMaxLineSize)

	number := 0
	for scanner.Scan() {
		number++

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		line := p.evaluateLine(number, text)
		summary.Evaluated++
		if line.Error != "" {
			summary.Failed++
		}

		if err := emit(line); err != nil {
			return summary, err
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read line %d: %w", number+1, err)
	}

	p.logger.Debug("Batch processed",
		"lines", number,
		"evaluated", summary.Evaluated,
		"failed", summary.Failed,
	)

	return summary, nil
}

func (p *Processor) evaluateLine(number int, text string) Line {
	line := Line{Number: number, Input: text}

	result, err := p.evaluate(text)
	if err != nil {
		line.Error = err.Error()
		line.Kind = domain.KindOf(err).String()
		return line
	}
	line.Result = &result
	return line
}

func (p *Processor) evaluate(text string) (domain.Result, error) {
	fields := SplitFields(text)
	if len(fields) != 2 {
		return domain.Result{}, fmt.Errorf("%w: expected 2 fields, got %d", domain.ErrParse, len(fields))
	}

	xA, err := p.parser.Parse("xA", fields[0])
	if err != nil {
		return domain.Result{}, err
	}
	xB, err := p.parser.Parse("xB", fields[1])
	if err != nil {
		return domain.Result{}, err
	}

	return p.evaluator.Evaluate(xA, xB)
}

// SplitFields splits a line on commas, semicolons and whitespace, dropping
// empty fields.
func SplitFields(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t':
			return true
		}
		return false
	})
}
