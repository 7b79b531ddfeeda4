// Package render produces the calculator's HTML pages.
package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// Paths used in links between pages.
const (
	HomePath       = "/"
	CalculatorPath = "/coeff-diffusion"
)

// User-facing messages for the rejected-input error kinds.
const (
	MsgParse          = "Please enter valid numeric values for xA and xB."
	MsgCompositionSum = "The sum of xA and xB must be equal to 1."
	MsgUnexpectedFmt  = "An unexpected error occurred: %s"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{template "content" .}}
</body>
</html>
{{end}}`

const homePage = `{{define "content"}}<h1>Diffusion coefficient calculator</h1>
<p>Click the button below to open the calculator.</p>
<a href="{{.CalculatorPath}}"><button>Open the calculator</button></a>
{{end}}`

const formPage = `{{define "content"}}<h1>Diffusion coefficient D<sub>AB</sub> calculator</h1>
<form method="post" action="{{.CalculatorPath}}">
    x<sub>A</sub> : <input type="number" step="any" name="xA" value="{{.XA}}" required><br>
    x<sub>B</sub> : <input type="number" step="any" name="xB" value="{{.XB}}" required><br>
    <input type="submit" value="Calculate">
</form>
<br>
<a href="{{.HomePath}}">Back to home</a>
{{end}}`

const resultPage = `{{define "content"}}<h1>Calculation result</h1>
<p>x<sub>A</sub> = {{.XA}}, x<sub>B</sub> = {{.XB}}</p>
<p>D<sub>AB</sub> computed = {{.DAB}} cm²/s</p>
<p>Error = {{.PercentError}} %</p>
<a href="{{.CalculatorPath}}">New calculation</a>
<br>
<a href="{{.HomePath}}">Back to home</a>
{{end}}`

const errorPage = `{{define "content"}}<h1>Error</h1>
<p>{{.Message}}</p>
<a href="{{.CalculatorPath}}">Back</a>
{{end}}`

// HTMLRenderer renders pages from embedded html/template definitions.
type HTMLRenderer struct {
	home   *template.Template
	form   *template.Template
	result *template.Template
	err    *template.Template
}

// NewHTMLRenderer parses the page templates.
func NewHTMLRenderer() (ports.PageRenderer, error) {
	r := &HTMLRenderer{}
	pages := []struct {
		dst  **template.Template
		name string
		body string
	}{
		{&r.home, "home", homePage},
		{&r.form, "form", formPage},
		{&r.result, "result", resultPage},
		{&r.err, "error", errorPage},
	}
	for _, p := range pages {
		t, err := template.New(p.name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := t.Parse(p.body); err != nil {
			return nil, fmt.Errorf("parse %s page: %w", p.name, err)
		}
		*p.dst = t
	}
	return r, nil
}

type pageData struct {
	Title          string
	HomePath       string
	CalculatorPath string
	XA             string
	XB             string
	DAB            string
	PercentError   string
	Message        string
}

func newPageData(title string) pageData {
	return pageData{
		Title:          title,
		HomePath:       HomePath,
		CalculatorPath: CalculatorPath,
	}
}

// Home renders the landing page.
func (r *HTMLRenderer) Home(w io.Writer) error {
	return r.home.ExecuteTemplate(w, "layout", newPageData("D_AB calculator"))
}

// Form renders the input form pre-filled with defaults.
func (r *HTMLRenderer) Form(w io.Writer, defaults domain.Composition) error {
	data := newPageData("D_AB calculator")
	data.XA = FormatFraction(defaults.XA)
	data.XB = FormatFraction(defaults.XB)
	return r.form.ExecuteTemplate(w, "layout", data)
}

// Result renders a successful evaluation.
func (r *HTMLRenderer) Result(w io.Writer, result domain.Result) error {
	data := newPageData("D_AB result")
	data.XA = FormatFraction(result.Composition.XA)
	data.XB = FormatFraction(result.Composition.XB)
	data.DAB = FormatDAB(result.DAB)
	data.PercentError = FormatPercent(result.PercentError)
	return r.result.ExecuteTemplate(w, "layout", data)
}

// Error renders the message for a failed evaluation.
func (r *HTMLRenderer) Error(w io.Writer, kind domain.Kind, detail string) error {
	data := newPageData("Error")
	data.Message = Message(kind, detail)
	return r.err.ExecuteTemplate(w, "layout", data)
}

// Message returns the user-facing text for an error kind.
func Message(kind domain.Kind, detail string) string {
	switch kind {
	case domain.KindParse:
		return MsgParse
	case domain.KindCompositionSum:
		return MsgCompositionSum
	default:
		return fmt.Sprintf(MsgUnexpectedFmt, detail)
	}
}

// FormatDAB formats a diffusion coefficient with six significant digits in
// exponential notation.
func FormatDAB(v float64) string {
	return fmt.Sprintf("%.6e", v)
}

// FormatPercent formats a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatFraction formats a mole fraction for display.
func FormatFraction(v float64) string {
	return fmt.Sprintf("%g", v)
}
