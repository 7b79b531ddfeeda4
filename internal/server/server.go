// Package server exposes a Calculator over HTTP with fasthttp. It maps
// evaluation errors to pages and JSON responses; the computation itself
// lives behind the Calculator interface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/time/rate"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/metrics"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/render"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/config"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/pool"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/sweep"
)

// Routes.
const (
	PathHome       = render.HomePath
	PathCalculator = render.CalculatorPath
	PathEvaluate   = "/api/evaluate"
	PathSweep      = "/api/sweep"
	PathParameters = "/api/parameters"
	PathHealth     = "/health"
	PathMetrics    = "/metrics"
)

// JSON error bodies for framework-level failures.
const (
	MsgNotFound         = "This page does not exist!"
	MsgInternalError    = "Internal server error"
	MsgMethodNotAllowed = "Method not allowed"
	MsgTooManyRequests  = "Too many requests"
)

// Default sweep grid for /api/sweep when the query omits it.
var defaultSweep = sweep.Request{From: 0.05, To: 0.95, Steps: 18}

// Calculator is what the server needs from the evaluator facade.
type Calculator interface {
	EvaluateStrings(xA, xB string) (domain.Result, error)
	Sweep(ctx context.Context, req sweep.Request) (sweep.Profile, error)
	Parameters() domain.Parameters
	// Parser parses numeric query and form values the same way
	// EvaluateStrings does.
	Parser() ports.InputParser
}

// Options configures optional server features.
type Options struct {
	// Metrics enables /metrics and HTTP instrumentation when non-nil.
	Metrics   *metrics.Metrics
	RateLimit config.RateLimitConfig
	// SweepTimeout bounds one /api/sweep request (0 means 30s).
	SweepTimeout time.Duration
}

// Server is the HTTP adapter around a Calculator.
type Server struct {
	calc     Calculator
	renderer ports.PageRenderer
	logger   ports.Logger
	pages    *pool.PagePool
	metrics  *metrics.Metrics
	limiter  *rate.Limiter

	metricsHandler fasthttp.RequestHandler
	sweepTimeout   time.Duration
}

// New creates a server for calc.
func New(calc Calculator, logger ports.Logger, opts Options) (*Server, error) {
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		calc:         calc,
		renderer:     renderer,
		logger:       logger,
		pages:        pool.NewPagePool(),
		metrics:      opts.Metrics,
		sweepTimeout: opts.SweepTimeout,
	}
	if s.sweepTimeout <= 0 {
		s.sweepTimeout = 30 * time.Second
	}
	if opts.RateLimit.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit.RequestsPerSecond), opts.RateLimit.Burst)
	}
	if s.metrics != nil {
		s.metricsHandler = fasthttpadaptor.NewFastHTTPHandler(s.metrics.Handler())
	}
	return s, nil
}

// NewHTTPServer builds the fasthttp server for cfg.
func (s *Server) NewHTTPServer(cfg config.ServerConfig) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:               s.Handler,
		Name:                  "DiffusionServer",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		MaxRequestBodySize:    cfg.MaxRequestSize,
		Concurrency:           cfg.Concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig) error {
	srv := s.NewHTTPServer(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

// Handler is the main fasthttp request handler.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	requestID := string(ctx.Request.Header.Peek("X-Request-ID"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Response.Header.Set("X-Request-ID", requestID)

	path := string(ctx.Path())
	endpoint := s.dispatch(ctx, path)

	duration := time.Since(startTime)
	if s.metrics != nil {
		s.metrics.RecordHTTPRequest(string(ctx.Method()), endpoint, ctx.Response.StatusCode(), duration)
	}
	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", path,
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", duration,
		"request_id", requestID,
	)
}

// dispatch routes the request and returns the endpoint label for metrics.
func (s *Server) dispatch(ctx *fasthttp.RequestCtx, path string) (endpoint string) {
	endpoint = path
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic", "path", path, "panic", fmt.Sprint(r))
			ctx.ResetBody()
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			s.writeJSONError(ctx, MsgInternalError)
		}
	}()

	if path != PathHealth && path != PathMetrics && !s.allow() {
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		s.writeJSONError(ctx, MsgTooManyRequests)
		return "rate_limited"
	}

	switch path {
	case PathHome:
		s.handleHome(ctx)
	case PathCalculator:
		s.handleCalculator(ctx)
	case PathEvaluate:
		s.handleEvaluate(ctx)
	case PathSweep:
		s.handleSweep(ctx)
	case PathParameters:
		s.handleParameters(ctx)
	case PathHealth:
		s.handleHealthCheck(ctx)
	case PathMetrics:
		if s.metricsHandler == nil {
			return s.notFound(ctx)
		}
		s.metricsHandler(ctx)
	default:
		return s.notFound(ctx)
	}
	return endpoint
}

func (s *Server) allow() bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	if s.metrics != nil {
		s.metrics.RecordRateLimited()
	}
	return false
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) string {
	ctx.SetStatusCode(fasthttp.StatusNotFound)
	s.writeJSONError(ctx, MsgNotFound)
	return "unmatched"
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx, allowed string) {
	ctx.Response.Header.Set("Allow", allowed)
	ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
	s.writeJSONError(ctx, MsgMethodNotAllowed)
}

// handleHome renders the landing page.
func (s *Server) handleHome(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		s.methodNotAllowed(ctx, "GET, HEAD")
		return
	}
	s.writePage(ctx, fasthttp.StatusOK, s.renderer.Home)
}

// handleCalculator shows the form on GET and evaluates it on POST.
func (s *Server) handleCalculator(ctx *fasthttp.RequestCtx) {
	switch {
	case ctx.IsGet() || ctx.IsHead():
		s.writePage(ctx, fasthttp.StatusOK, func(w io.Writer) error {
			return s.renderer.Form(w, domain.Composition{XA: 0.5, XB: 0.5})
		})
	case ctx.IsPost():
		s.handleCalculatorPost(ctx)
	default:
		s.methodNotAllowed(ctx, "GET, HEAD, POST")
	}
}

func (s *Server) handleCalculatorPost(ctx *fasthttp.RequestCtx) {
	xA := string(ctx.FormValue("xA"))
	xB := string(ctx.FormValue("xB"))

	result, err := s.calc.EvaluateStrings(xA, xB)
	if err != nil {
		kind := domain.KindOf(err)
		s.logger.Warn("Evaluation rejected", "kind", kind.String(), "error", err)
		s.writePage(ctx, statusFor(kind), func(w io.Writer) error {
			return s.renderer.Error(w, kind, err.Error())
		})
		return
	}

	s.writePage(ctx, fasthttp.StatusOK, func(w io.Writer) error {
		return s.renderer.Result(w, result)
	})
}

// EvaluateRequest is the body of POST /api/evaluate. Values may be JSON
// numbers or numeric strings.
type EvaluateRequest struct {
	XA json.Number `json:"xA"`
	XB json.Number `json:"xB"`
}

// EvaluateResponse is the body of a successful /api/evaluate.
type EvaluateResponse struct {
	domain.Result
	DABFormatted          string `json:"d_ab_formatted"`
	PercentErrorFormatted string `json:"percent_error_formatted"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// handleEvaluate evaluates a JSON composition.
func (s *Server) handleEvaluate(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		s.methodNotAllowed(ctx, "POST")
		return
	}

	var req EvaluateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSON(ctx, ErrorResponse{
			Error: "Invalid request: " + err.Error(),
			Kind:  domain.KindParse.String(),
		})
		return
	}

	result, err := s.calc.EvaluateStrings(req.XA.String(), req.XB.String())
	if err != nil {
		kind := domain.KindOf(err)
		ctx.SetStatusCode(statusFor(kind))
		s.writeJSON(ctx, ErrorResponse{
			Error: render.Message(kind, err.Error()),
			Kind:  kind.String(),
		})
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSON(ctx, EvaluateResponse{
		Result:                result,
		DABFormatted:          render.FormatDAB(result.DAB),
		PercentErrorFormatted: render.FormatPercent(result.PercentError),
	})
}

// handleSweep returns D_AB over a grid of xA values.
func (s *Server) handleSweep(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.methodNotAllowed(ctx, "GET")
		return
	}

	req, err := s.sweepRequest(ctx.QueryArgs())
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, err.Error())
		return
	}

	c, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	profile, err := s.calc.Sweep(c, req)
	if err != nil {
		if errors.Is(err, sweep.ErrInvalidRequest) {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
		} else {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		}
		s.writeJSONError(ctx, err.Error())
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSON(ctx, profile)
}

func (s *Server) sweepRequest(args *fasthttp.Args) (sweep.Request, error) {
	req := defaultSweep
	p := s.calc.Parser()

	if args.Has("from") {
		v, err := p.Parse("from", string(args.Peek("from")))
		if err != nil {
			return req, err
		}
		req.From = v
	}
	if args.Has("to") {
		v, err := p.Parse("to", string(args.Peek("to")))
		if err != nil {
			return req, err
		}
		req.To = v
	}
	if args.Has("steps") {
		n, err := args.GetUint("steps")
		if err != nil {
			return req, fmt.Errorf("%w: steps = %q is not a positive integer", domain.ErrParse, args.Peek("steps"))
		}
		req.Steps = n
	}
	return req, nil
}

// handleParameters returns the frozen parameter set.
func (s *Server) handleParameters(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		s.methodNotAllowed(ctx, "GET")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSON(ctx, s.calc.Parameters())
}

// handleHealthCheck responds to health check requests.
func (s *Server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	response := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
	s.writeJSON(ctx, response)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindParse, domain.KindCompositionSum:
		return fasthttp.StatusBadRequest
	default:
		return fasthttp.StatusUnprocessableEntity
	}
}

// Helper functions

// writePage renders a full HTML page into a pooled buffer and sends it.
func (s *Server) writePage(ctx *fasthttp.RequestCtx, status int, fn func(w io.Writer) error) {
	body, err := s.pages.Render(fn)
	if err != nil {
		s.logger.Error("Error rendering page", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.writeJSONError(ctx, MsgInternalError)
		return
	}

	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// writeJSON writes a JSON response to the context.
func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Error marshaling JSON response", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.writeJSONError(ctx, MsgInternalError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context.
func (s *Server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(response)
}
