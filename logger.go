// logger.go
// Package diffusioncoefficient provides shared utilities for the go_diffusion_coefficient package.
package diffusioncoefficient

import (
	"os"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/ports"
)

// createDefaultLogger creates and returns a default logger instance.
func createDefaultLogger() (ports.Logger, error) {
	return logger.New(logger.Options{
		Output: os.Stdout,
		JSON:   false,
		Level:  logger.LevelInfo,
	})
}
