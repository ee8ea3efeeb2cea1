package loader

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// DefaultSpecFiles are the specification file names tried in order
var DefaultSpecFiles = []string{"plugin.json", "plugin.yaml", "plugin.yml"}

// ConventionLoader loads a plugin directory into a LoadedPlugin. It only
// reads; healing writes go through Writer and require a fresh Load.
type ConventionLoader struct {
	repo      storage.Repository
	scanner   *Scanner
	parser    *Parser
	specFiles []string
	logger    zerolog.Logger
}

// NewConventionLoader creates a loader. An empty specFile uses DefaultSpecFiles.
func NewConventionLoader(repo storage.Repository, specFile string, logger zerolog.Logger) *ConventionLoader {
	specFiles := DefaultSpecFiles
	if specFile != "" {
		specFiles = []string{specFile}
	}
	return &ConventionLoader{
		repo:      repo,
		scanner:   NewScanner(repo),
		parser:    NewParser(),
		specFiles: specFiles,
		logger:    logger.With().Str("component", "loader").Logger(),
	}
}

// SpecPath returns the first existing specification file in pluginDir
func (l *ConventionLoader) SpecPath(pluginDir string) (string, bool) {
	for _, name := range l.specFiles {
		path := filepath.Join(pluginDir, name)
		if l.repo.Exists(path) && !l.repo.IsDir(path) {
			return path, true
		}
	}
	return "", false
}

// Load parses the specification and scans agents/, hooks/ and skills/
func (l *ConventionLoader) Load(pluginDir string) (*domain.LoadedPlugin, error) {
	if !l.repo.IsDir(pluginDir) {
		return nil, domain.NewAppError(
			domain.ErrPluginDirNotFound,
			"Plugin directory not found",
			map[string]any{"dir": pluginDir},
		).WithOperation("load")
	}

	specPath, ok := l.SpecPath(pluginDir)
	if !ok {
		return nil, domain.NewAppError(
			domain.ErrSpecNotFound,
			"Specification file not found",
			map[string]any{"dir": pluginDir, "candidates": l.specFiles},
		).WithOperation("load")
	}

	data, err := l.repo.ReadFile(specPath)
	if err != nil {
		return nil, domain.NewAppErrorWithCause(
			domain.ErrSpecNotFound,
			"Specification file could not be read",
			err,
			map[string]any{"path": specPath},
		).WithOperation("load")
	}

	parsed, parseErr := l.parser.Parse(data, specPath)
	if parseErr != nil {
		return nil, domain.NewAppError(
			domain.ErrMalformedSpec,
			parseErr.Error,
			parseErr,
		).WithOperation("load")
	}

	plugin := &domain.LoadedPlugin{
		Dir:      pluginDir,
		SpecPath: specPath,
		Format:   parsed.Format,
		Spec:     parsed.Spec,
		Raw:      parsed.Raw,
		Agents:   make(map[string]domain.Asset),
		Hooks:    make(map[string]domain.Asset),
		Skills:   make(map[string]domain.Asset),
		Paths:    []string{specPath},
	}

	scans := []struct {
		kind   string
		scan   func(string) ([]domain.Asset, error)
		target map[string]domain.Asset
	}{
		{"agents", l.scanner.ScanAgents, plugin.Agents},
		{"hooks", l.scanner.ScanHooks, plugin.Hooks},
		{"skills", l.scanner.ScanSkills, plugin.Skills},
	}
	for _, s := range scans {
		assets, err := s.scan(pluginDir)
		if err != nil {
			return nil, domain.NewAppErrorWithCause(
				domain.ErrRepositoryFailure,
				fmt.Sprintf("Failed to scan %s", s.kind),
				err,
				map[string]any{"dir": pluginDir},
			).WithOperation("load")
		}
		for _, asset := range assets {
			s.target[asset.ID] = asset
			plugin.Paths = append(plugin.Paths, asset.Path)
		}
	}

	l.logger.Debug().
		Str("spec", specPath).
		Str("format", string(parsed.Format)).
		Int("agents", len(plugin.Agents)).
		Int("hooks", len(plugin.Hooks)).
		Int("skills", len(plugin.Skills)).
		Msg("Loaded plugin")

	return plugin, nil
}
