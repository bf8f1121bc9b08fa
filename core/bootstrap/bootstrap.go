package bootstrap

import (
	"context"
	"fmt"

	coreconfig "github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Services   ServiceProvider
}

// Result exposes application services initialized by the bootstrap pipeline.
type Result struct {
	Services interface{}
}

// Run initializes the logger and wires application services.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if opts.Services != nil {
		services, err := opts.Services.Provide(ctx, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: service initialization failed: %w", err)
		}
		res.Services = services
	}

	return res, nil
}
