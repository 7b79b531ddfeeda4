package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/render"
)

type errorOutput struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// printer renders human-readable output. Styles are bound to the output
// writer so colour is dropped when it is not a terminal.
type printer struct {
	w io.Writer

	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:     w,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label: r.NewStyle().Foreground(lipgloss.Color("8")),
		value: r.NewStyle().Bold(true),
		bad:   r.NewStyle().Foreground(lipgloss.Color("9")),
		muted: r.NewStyle().Faint(true),
	}
}

func (p *printer) result(res diffusioncoefficient.Result, verbose bool) {
	fmt.Fprintf(p.w, "%s xA=%s xB=%s\n",
		p.title.Render("Composition"),
		render.FormatFraction(res.Composition.XA),
		render.FormatFraction(res.Composition.XB))
	fmt.Fprintf(p.w, "%s %s cm²/s\n", p.label.Render("D_AB computed ="), p.value.Render(render.FormatDAB(res.DAB)))
	fmt.Fprintf(p.w, "%s %s %%\n", p.label.Render("Error ="), p.value.Render(render.FormatPercent(res.PercentError)))

	if !verbose {
		return
	}
	t := res.Terms
	for _, row := range []struct {
		name string
		v    float64
	}{
		{"term1", t.Term1},
		{"term2", t.Term2},
		{"term3", t.Term3},
		{"term4", t.Term4},
		{"term5", t.Term5},
		{"ln(D_AB)", t.LnDAB},
	} {
		fmt.Fprintf(p.w, "  %s %.10g\n", p.muted.Render(fmt.Sprintf("%-9s", row.name)), row.v)
	}
}

func (p *printer) profile(profile diffusioncoefficient.SweepProfile) {
	fmt.Fprintf(p.w, "%s\n", p.title.Render(fmt.Sprintf("%-10s %-10s %-14s %s", "xA", "xB", "D_AB (cm²/s)", "Error (%)")))
	for _, pt := range profile.Points {
		xA := render.FormatFraction(pt.Composition.XA)
		xB := render.FormatFraction(pt.Composition.XB)
		if pt.Result == nil {
			fmt.Fprintf(p.w, "%-10s %-10s %s\n", xA, xB, p.bad.Render(pt.Error))
			continue
		}
		fmt.Fprintf(p.w, "%-10s %-10s %-14s %s\n", xA, xB,
			render.FormatDAB(pt.Result.DAB), render.FormatPercent(pt.Result.PercentError))
	}
	fmt.Fprintf(p.w, "%s\n", p.muted.Render(fmt.Sprintf("%d points, %d failed, %s",
		len(profile.Points), profile.Failed, profile.Duration)))
}

func (p *printer) batchLine(line diffusioncoefficient.BatchLine) {
	prefix := p.muted.Render(fmt.Sprintf("%4d", line.Number))
	if line.Result == nil {
		fmt.Fprintf(p.w, "%s %s %s\n", prefix, line.Input, p.bad.Render(line.Error))
		return
	}
	fmt.Fprintf(p.w, "%s %s D_AB=%s Error=%s%%\n", prefix, line.Input,
		render.FormatDAB(line.Result.DAB), render.FormatPercent(line.Result.PercentError))
}

func (p *printer) batchSummary(s diffusioncoefficient.BatchSummary) {
	fmt.Fprintf(p.w, "%s\n", p.muted.Render(fmt.Sprintf("%d evaluated, %d failed", s.Evaluated, s.Failed)))
}

func (p *printer) parameters(params diffusioncoefficient.Parameters) {
	fmt.Fprintf(p.w, "%s\n", p.title.Render("Correlation parameters"))
	for _, row := range []struct {
		name string
		v    float64
	}{
		{"D0_A", params.D0A},
		{"D0_B", params.D0B},
		{"phi_A", params.PhiA},
		{"phi_B", params.PhiB},
		{"lambda_A", params.LambdaA},
		{"lambda_B", params.LambdaB},
		{"q_A", params.QA},
		{"q_B", params.QB},
		{"theta_BA", params.ThetaBA},
		{"theta_BB", params.ThetaBB},
		{"theta_AB", params.ThetaAB},
		{"theta_AA", params.ThetaAA},
		{"tau_BA", params.TauBA},
		{"tau_AB", params.TauAB},
		{"D_AB_ref", params.DABRef},
	} {
		fmt.Fprintf(p.w, "  %s %g\n", p.label.Render(fmt.Sprintf("%-9s", row.name)), row.v)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}
