package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/metrics"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/config"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/sweep"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	calc, err := diffusioncoefficient.New(diffusioncoefficient.WithQuietLogger(), diffusioncoefficient.WithMetrics(opts.Metrics))
	require.NoError(t, err)
	s, err := New(calc, logger.NewNopLogger(), opts)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, uri, contentType, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if contentType != "" {
		ctx.Request.Header.SetContentType(contentType)
	}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.Handler(&ctx)
	return &ctx
}

func postForm(s *Server, body string) *fasthttp.RequestCtx {
	return do(s, fasthttp.MethodPost, PathCalculator, "application/x-www-form-urlencoded", body)
}

func TestHomeAndForm(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, fasthttp.MethodGet, PathHome, "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/html; charset=utf-8", string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Body()), `href="/coeff-diffusion"`)
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))

	ctx = do(s, fasthttp.MethodGet, PathCalculator, "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `name="xA" value="0.5"`)
}

func TestCalculatorPost(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"reference scenario", "xA=0.5&xB=0.5", fasthttp.StatusOK, "1.995896e-05 cm²/s"},
		{"reference error", "xA=0.5&xB=0.5", fasthttp.StatusOK, "Error = 50.07 %"},
		{"sum violated", "xA=0.5&xB=0.6", fasthttp.StatusBadRequest, "The sum of xA and xB must be equal to 1."},
		{"not a number", "xA=abc&xB=0.5", fasthttp.StatusBadRequest, "Please enter valid numeric values for xA and xB."},
		{"missing field", "xA=0.5", fasthttp.StatusBadRequest, "Please enter valid numeric values for xA and xB."},
		{"pure component", "xA=0&xB=1", fasthttp.StatusUnprocessableEntity, "An unexpected error occurred: float division by zero"},
	}

	s := newTestServer(t, Options{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := postForm(s, tc.body)
			assert.Equal(t, tc.status, ctx.Response.StatusCode())
			assert.Contains(t, string(ctx.Response.Body()), tc.want)
			if tc.status != fasthttp.StatusOK {
				assert.Contains(t, string(ctx.Response.Body()), `href="/coeff-diffusion">Back`)
			}
		})
	}
}

func TestEvaluateAPI(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, fasthttp.MethodPost, PathEvaluate, "application/json", `{"xA":0.25,"xB":"0.75"}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp EvaluateResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, "1.351658e-05", resp.DABFormatted)
	assert.Equal(t, "1.63", resp.PercentErrorFormatted)
	assert.Equal(t, 0.25, resp.Composition.XA)
	assert.InDelta(t, -11.211593841, resp.Terms.LnDAB, 1e-6)

	ctx = do(s, fasthttp.MethodPost, PathEvaluate, "application/json", `{"xA":0.5,"xB":0.6}`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &errResp))
	assert.Equal(t, "composition_sum_error", errResp.Kind)

	ctx = do(s, fasthttp.MethodPost, PathEvaluate, "application/json", `{"xA":`)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodPost, PathEvaluate, "application/json", `{"xA":1,"xB":0}`)
	assert.Equal(t, fasthttp.StatusUnprocessableEntity, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &errResp))
	assert.Equal(t, "unexpected_evaluation_error", errResp.Kind)
	assert.Contains(t, errResp.Error, "float division by zero")

	ctx = do(s, fasthttp.MethodGet, PathEvaluate, "", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Equal(t, "POST", string(ctx.Response.Header.Peek("Allow")))
}

func TestSweepAPI(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, fasthttp.MethodGet, PathSweep+"?from=0.1&to=0.9&steps=4", "", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var profile sweep.Profile
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &profile))
	require.Len(t, profile.Points, 5)
	require.NotNil(t, profile.Points[2].Result)
	assert.InDelta(t, 1.995896e-05, profile.Points[2].Result.DAB, 1e-11)

	ctx = do(s, fasthttp.MethodGet, PathSweep, "", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &profile))
	assert.Len(t, profile.Points, defaultSweep.Steps+1)

	for _, uri := range []string{
		PathSweep + "?from=abc",
		PathSweep + "?steps=-3",
		PathSweep + "?from=0.9&to=0.1",
	} {
		ctx = do(s, fasthttp.MethodGet, uri, "", "")
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), uri)
	}
}

// percentParser reads values written as percentages, e.g. "25%".
type percentParser struct{}

func (percentParser) Parse(field, raw string) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%g%%", &v); err != nil {
		return 0, fmt.Errorf("%w: %s = %q", domain.ErrParse, field, raw)
	}
	return v / 100, nil
}

func TestSweepAPIUsesCalculatorParser(t *testing.T) {
	calc, err := diffusioncoefficient.New(
		diffusioncoefficient.WithQuietLogger(),
		diffusioncoefficient.WithParser(percentParser{}),
	)
	require.NoError(t, err)
	s, err := New(calc, logger.NewNopLogger(), Options{})
	require.NoError(t, err)

	ctx := do(s, fasthttp.MethodGet, PathSweep+"?from=25%25&to=75%25&steps=2", "", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var profile sweep.Profile
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &profile))
	require.Len(t, profile.Points, 3)
	assert.InDelta(t, 0.25, profile.Points[0].Composition.XA, 1e-12)
	assert.InDelta(t, 0.75, profile.Points[2].Composition.XA, 1e-12)

	ctx = do(s, fasthttp.MethodGet, PathSweep+"?from=0.25", "", "")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestParametersAPI(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, fasthttp.MethodGet, PathParameters, "", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var p domain.Parameters
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &p))
	assert.Equal(t, domain.DefaultParameters(), p)
}

func TestNotFoundAndHealth(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx := do(s, fasthttp.MethodGet, "/nope", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"This page does not exist!"}`, string(ctx.Response.Body()))

	ctx = do(s, fasthttp.MethodGet, PathMetrics, "", "")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodGet, PathHealth, "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"status":"ok"`)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, Options{})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI(PathHealth)
	ctx.Request.Header.Set("X-Request-ID", "abc-123")
	s.Handler(&ctx)

	assert.Equal(t, "abc-123", string(ctx.Response.Header.Peek("X-Request-ID")))
}

type panickingCalculator struct{ Calculator }

func (panickingCalculator) Parameters() domain.Parameters { panic("boom") }

func TestPanicRecovered(t *testing.T) {
	s, err := New(panickingCalculator{}, logger.NewNopLogger(), Options{})
	require.NoError(t, err)

	ctx := do(s, fasthttp.MethodGet, PathParameters, "", "")
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"Internal server error"}`, string(ctx.Response.Body()))
}

func TestRateLimit(t *testing.T) {
	m := metrics.NewMetrics()
	s := newTestServer(t, Options{
		Metrics:   m,
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1},
	})

	ctx := do(s, fasthttp.MethodGet, PathHome, "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = do(s, fasthttp.MethodGet, PathHome, "", "")
	assert.Equal(t, fasthttp.StatusTooManyRequests, ctx.Response.StatusCode())

	// Health checks bypass the limiter.
	ctx = do(s, fasthttp.MethodGet, PathHealth, "", "")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewMetrics()
	s := newTestServer(t, Options{Metrics: m})

	postForm(s, "xA=0.5&xB=0.5")
	ctx := do(s, fasthttp.MethodGet, PathMetrics, "", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	body := string(ctx.Response.Body())
	assert.Contains(t, body, `diffusion_evaluations_total{outcome="ok"} 1`)
	assert.Contains(t, body, `diffusion_http_requests_total{endpoint="/coeff-diffusion",method="POST",status_code="200"} 1`)
}

func TestServeInMemory(t *testing.T) {
	s := newTestServer(t, Options{})
	ln := fasthttputil.NewInmemoryListener()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln, config.Default().Server)
	}()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://diffusion.local" + PathCalculator)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString("xA=0.5&xB=0.5")
	req.SetConnectionClose()

	require.NoError(t, client.DoTimeout(req, resp, 5*time.Second))
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.True(t, strings.Contains(string(resp.Body()), "1.995896e-05"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
