// Package generator runs one plugin build: load, optionally heal, validate,
// then generate every registered platform into its own output subdirectory.
package generator

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plugforge/plugforge/internal/adapter"
	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// AdapterFactory provides the ordered platform list and builds adapters.
// adapter.Registry satisfies it.
type AdapterFactory interface {
	Names() []string
	New(name string) (adapter.Adapter, error)
}

// Config wires the pipeline stages of an AutoGenerator
type Config struct {
	Loader     domain.SpecLoader
	Validator  domain.SpecValidator
	Healer     domain.SpecHealer
	Adapters   AdapterFactory
	Repository storage.Repository

	// Heal runs the healer and reloads before validation
	Heal bool
}

// AutoGenerator drives a single generation run. It moves from unloaded to
// loaded on the first Generate call and never goes back; a new run needs a
// new AutoGenerator.
type AutoGenerator struct {
	cfg    Config
	logger zerolog.Logger

	mu     sync.Mutex
	loaded bool
}

// NewAutoGenerator creates an orchestrator for one run
func NewAutoGenerator(cfg Config, logger zerolog.Logger) *AutoGenerator {
	return &AutoGenerator{
		cfg:    cfg,
		logger: logger.With().Str("component", "generator").Logger(),
	}
}

// Loaded reports whether Generate has been called
func (g *AutoGenerator) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// Generate loads and validates the plugin in pluginDir and writes every
// platform under outputDir/<platform>. Load and validation failures abort the
// run before any platform is touched; platform failures are recorded in the
// report and never stop the other platforms.
func (g *AutoGenerator) Generate(pluginDir, outputDir string) (*domain.RunReport, error) {
	g.mu.Lock()
	if g.loaded {
		g.mu.Unlock()
		return nil, domain.NewAppError(domain.ErrAlreadyRun,
			"generator has already run; create a new one for another run", nil).WithOperation("generate")
	}
	g.loaded = true
	g.mu.Unlock()

	report := &domain.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		OutputDir: outputDir,
		Results:   make(map[string]domain.PlatformResult),
	}
	logger := g.logger.With().Str("run_id", report.RunID).Logger()

	plugin, err := g.cfg.Loader.Load(pluginDir)
	if err != nil {
		return nil, err
	}

	if g.cfg.Heal && g.cfg.Healer != nil {
		healed, err := g.cfg.Healer.Heal(plugin)
		if err != nil {
			return nil, fmt.Errorf("failed to heal %s: %w", pluginDir, err)
		}
		report.Healed = &healed
		if len(healed.Healed) > 0 {
			if plugin, err = g.cfg.Loader.Load(pluginDir); err != nil {
				return nil, err
			}
		}
	}

	report.Validation = g.cfg.Validator.Validate(plugin)
	for _, warning := range report.Validation.Warnings {
		logger.Warn().Msg(warning)
	}
	if !report.Validation.Valid {
		return report, domain.NewAppError(domain.ErrValidationFailed,
			fmt.Sprintf("specification has %d error(s)", len(report.Validation.Errors)),
			report.Validation.Errors).WithOperation("validate")
	}

	if err := g.cfg.Repository.MkdirAll(outputDir); err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrRepositoryFailure,
			"Failed to create output directory", err, map[string]any{"dir": outputDir})
	}

	report.Platforms = g.cfg.Adapters.Names()
	for _, name := range report.Platforms {
		result := g.generatePlatform(name, plugin, filepath.Join(outputDir, name))
		report.Results[name] = result

		event := logger.Info()
		if !result.Success {
			event = logger.Error().Str("error", result.Error)
		}
		event.Str("platform", name).Int("files", len(result.Files)).Msg("Platform generated")
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info().
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration).
		Msg("Generation finished")

	return report, nil
}

// generatePlatform runs one adapter, turning errors and panics into a failed result
func (g *AutoGenerator) generatePlatform(name string, plugin *domain.LoadedPlugin, dir string) (result domain.PlatformResult) {
	result = domain.PlatformResult{Platform: name, Dir: dir}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Str("platform", name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Adapter panicked")
			result.Success = false
			result.Files = nil
			result.Overridden = nil
			result.Error = fmt.Sprintf("%s: adapter panicked: %v", domain.ErrInternal, r)
		}
	}()

	a, err := g.cfg.Adapters.New(name)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	files, overridden, err := adapter.Generate(a, g.cfg.Repository, plugin.Spec, plugin.Dir, dir)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Files = files
	result.Overridden = overridden
	return result
}
