// diffusion_coefficient_test.go
package diffusioncoefficient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEvaluateWithDefaults(t *testing.T) {
	tests := []struct {
		name     string
		xA, xB   float64
		wantDAB  string
		wantErr  string
		wantKind Kind
	}{
		{
			name:    "Equimolar mixture",
			xA:      0.5,
			xB:      0.5,
			wantDAB: "1.995896e-05",
		},
		{
			name:    "Dilute A",
			xA:      0.1,
			xB:      0.9,
			wantDAB: "1.469621e-05",
		},
		{
			name:     "Sum above one",
			xA:       0.5,
			xB:       0.6,
			wantKind: KindCompositionSum,
		},
		{
			name:     "Pure B",
			xA:       0,
			xB:       1,
			wantErr:  "float division by zero",
			wantKind: KindUnexpected,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := EvaluateWithDefaults(tc.xA, tc.xB)
			if tc.wantKind != KindNone {
				if KindOf(err) != tc.wantKind {
					t.Fatalf("expected kind %v, got %v (%v)", tc.wantKind, KindOf(err), err)
				}
				if tc.wantErr != "" && err.Error() != tc.wantErr {
					t.Errorf("expected message %q, got %q", tc.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fmt.Sprintf("%.6e", result.DAB); got != tc.wantDAB {
				t.Errorf("expected D_AB %s, got %s", tc.wantDAB, got)
			}
		})
	}
}

func TestEvaluateStrings(t *testing.T) {
	c, err := New(WithQuietLogger())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.EvaluateStrings("abc", "0.5"); !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := c.EvaluateStrings("0.5", ""); !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := c.EvaluateStrings("0.5", "0.6"); !errors.Is(err, ErrCompositionSum) {
		t.Errorf("expected composition error, got %v", err)
	}

	result, err := c.EvaluateStrings(" 0.5", "0.5 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fmt.Sprintf("%.2f", result.PercentError); got != "50.07" {
		t.Errorf("expected 50.07 %% error, got %s", got)
	}
}

func TestCustomParameters(t *testing.T) {
	p := DefaultParameters()
	p.DABRef = 1.995896e-05

	c, err := New(WithQuietLogger(), WithParameters(p))
	if err != nil {
		t.Fatal(err)
	}
	result, err := c.Evaluate(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if result.PercentError > 0.001 {
		t.Errorf("expected near-zero deviation, got %v", result.PercentError)
	}
	if c.Parameters().DABRef != p.DABRef {
		t.Errorf("parameters not applied")
	}

	p.TauAB = -1
	if _, err := New(WithQuietLogger(), WithParameters(p)); err == nil {
		t.Error("expected invalid parameters to be rejected")
	}
}

func TestMetricsRecorded(t *testing.T) {
	m := metrics.NewMetrics()
	c, err := New(WithQuietLogger(), WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}

	_, _ = c.Evaluate(0.5, 0.5)
	_, _ = c.EvaluateStrings("x", "0.5")
	if _, err := c.Sweep(context.Background(), SweepRequest{From: 0.1, To: 0.9, Steps: 4}); err != nil {
		t.Fatal(err)
	}

	count, err := testutil.GatherAndCount(m.Registry(), "diffusion_evaluations_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 outcome series, got %d", count)
	}
}

func TestBatch(t *testing.T) {
	c, err := New(WithQuietLogger())
	if err != nil {
		t.Fatal(err)
	}

	var got []BatchLine
	summary, err := c.Batch(context.Background(), strings.NewReader("0.5,0.5\n0.5,0.6\n"), func(line BatchLine) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Evaluated != 2 || summary.Failed != 1 || len(got) != 2 {
		t.Errorf("unexpected summary %+v (%d lines)", summary, len(got))
	}
}
