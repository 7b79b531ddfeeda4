package benchmark

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/render"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/pool"
)

// generateBatch creates n "xA,xB" lines spread over (0, 1).
func generateBatch(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		xA := float64(i%99+1) / 100
		fmt.Fprintf(&sb, "%g,%g\n", xA, 1-xA)
	}
	return sb.String()
}

func newCalculator(b *testing.B, opts ...diffusioncoefficient.Option) *diffusioncoefficient.Calculator {
	b.Helper()
	calc, err := diffusioncoefficient.New(append([]diffusioncoefficient.Option{diffusioncoefficient.WithQuietLogger()}, opts...)...)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	b.Cleanup(func() { _ = calc.Close() })
	return calc
}

// BenchmarkEvaluate compares numeric and string input paths
func BenchmarkEvaluate(b *testing.B) {
	calc := newCalculator(b)

	b.Run("Numeric", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = calc.Evaluate(0.5, 0.5)
		}
	})

	b.Run("Strings", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = calc.EvaluateStrings("0.5", "0.5")
		}
	})

	b.Run("Rejected", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = calc.EvaluateStrings("0.6", "0.6")
		}
	})
}

// BenchmarkSweep measures sweeps of different sizes and concurrency levels
func BenchmarkSweep(b *testing.B) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sizes := []int{10, 1000, 10000}
	workers := []int{1, 4}

	for _, w := range workers {
		calc := newCalculator(b, diffusioncoefficient.WithSweepConcurrency(w))
		for _, steps := range sizes {
			req := diffusioncoefficient.SweepRequest{From: 0.01, To: 0.99, Steps: steps}
			b.Run(fmt.Sprintf("Workers-%d/Steps-%d", w, steps), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_, _ = calc.Sweep(ctx, req)
				}
			})
		}
	}
}

// BenchmarkBatch benchmarks line-oriented batch evaluation
func BenchmarkBatch(b *testing.B) {
	calc := newCalculator(b)
	ctx := context.Background()
	discard := func(diffusioncoefficient.BatchLine) error { return nil }

	for _, n := range []int{100, 10000} {
		input := generateBatch(n)
		b.Run(fmt.Sprintf("Lines-%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				_, _ = calc.Batch(ctx, strings.NewReader(input), discard)
			}
		})
	}
}

// BenchmarkRenderResult compares direct template execution with pooled buffers
func BenchmarkRenderResult(b *testing.B) {
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		b.Fatalf("NewHTMLRenderer() error = %v", err)
	}
	result, err := diffusioncoefficient.EvaluateWithDefaults(0.5, 0.5)
	if err != nil {
		b.Fatalf("EvaluateWithDefaults() error = %v", err)
	}

	b.Run("Direct", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = renderer.Result(io.Discard, result)
		}
	})

	b.Run("Pooled", func(b *testing.B) {
		pages := pool.NewPagePool()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = pages.Render(func(w io.Writer) error {
				return renderer.Result(w, result)
			})
		}
	})
}
