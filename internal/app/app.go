// Package app wires the engine together: loaders, the action registry,
// the scheduler, and the run report, under one isolated logger.
package app

import (
	"io"
	"log/slog"

	"github.com/vk/flowgridgo/internal/hclcfg"
	"github.com/vk/flowgridgo/internal/loader"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/internal/yamlcfg"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	loader   *loader.Loader
}

// NewApp constructs a fully initialized App with its own logger and action
// registry. Passing modules overrides the built-in action set, which is
// how tests inject spies.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreActions
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All actions registered.", "count", len(modules), "actions", reg.Names())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader.New(hclcfg.NewLoader(), yamlcfg.NewLoader()),
	}
}

// Registry returns the application's action registry. Primarily for tests.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
