// Package main runs the diffusion coefficient calculator as an HTTP service.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	diffusioncoefficient "github.com/baditaflorin/go_diffusion_coefficient"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/metrics"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/config"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diffusion-server",
		Short: "HTTP calculator for the binary diffusion coefficient D_AB",
		Long: `Serves the D_AB calculator form on /coeff-diffusion together with a JSON API.

Example:
  diffusion-server --addr 127.0.0.1:5000 --log-level debug`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().String("addr", "", "Listen address (overrides config)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-file", "", "Log file path (empty = stdout)")
	rootCmd.Flags().Bool("print-url", false, "Print the calculator URL on stdout once listening")

	return rootCmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// CLI flags override config file values.
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Address = addr
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		cfg.Logging.File = file
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := createLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	calc, err := diffusioncoefficient.New(
		diffusioncoefficient.WithPortsLogger(log),
		diffusioncoefficient.WithParameters(cfg.EffectiveParameters()),
		diffusioncoefficient.WithMetrics(m),
		diffusioncoefficient.WithSweepConcurrency(cfg.Sweep.Concurrency),
		diffusioncoefficient.WithSweepMaxSteps(cfg.Sweep.MaxSteps),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize calculator: %w", err)
	}

	srv, err := server.New(calc, log, server.Options{
		Metrics:   m,
		RateLimit: cfg.RateLimit,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Address, err)
	}

	log.Info("Starting diffusion coefficient HTTP server",
		"address", ln.Addr().String(),
		"read_timeout", cfg.Server.ReadTimeout,
		"write_timeout", cfg.Server.WriteTimeout,
		"max_request_size", cfg.Server.MaxRequestSize,
		"rate_limit_rps", cfg.RateLimit.RequestsPerSecond,
		"metrics", cfg.Metrics.Enabled,
		"cpus", runtime.NumCPU(),
	)

	if printURL, _ := cmd.Flags().GetBool("print-url"); printURL {
		fmt.Fprintln(cmd.OutOrStdout(), calculatorURL(ln.Addr()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx, ln, cfg.Server); err != nil {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

// calculatorURL returns the form URL for a listener address. Wildcard hosts
// are replaced with localhost.
func calculatorURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + server.PathCalculator
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + server.PathCalculator
}

// createLogger creates and configures a logger.
func createLogger(cfg config.LoggingConfig) (ports.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	return logger.New(logger.Options{
		Output: output,
		JSON:   cfg.JSON,
		Level:  level,
	})
}
