package validation

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/loader"
	"github.com/plugforge/plugforge/internal/storage"
)

// Placeholder values added for missing metadata
const (
	PlaceholderDescription = "Describe what this plugin does."
)

// PlaceholderKeywords are added when the specification declares none
var PlaceholderKeywords = []string{"ai-assistant", "plugin"}

// DeprecatedHookNames maps legacy hook file names to their conventional names
var DeprecatedHookNames = map[string]string{
	"pre-tool.js": "pre-tool-use-hook.js",
	"session.js":  "session-start-hook.js",
	"prompt.js":   "prompt-submit-hook.js",
	"stop.js":     "stop-hook.js",
	"stop-git.js": "stop-git-hook.js",
}

// Healer implements domain.SpecHealer. It only adds or renames; it never
// deletes or overwrites content, and it leaves the in-memory plugin untouched.
// Callers reload after healing.
type Healer struct {
	repo   storage.Repository
	writer *loader.Writer
	logger zerolog.Logger
}

// NewHealer creates a healer writing through repo
func NewHealer(repo storage.Repository, logger zerolog.Logger) *Healer {
	return &Healer{
		repo:   repo,
		writer: loader.NewWriter(repo),
		logger: logger.With().Str("component", "healer").Logger(),
	}
}

// Heal repairs known defects on disk. Each action is independent and
// idempotent; a second pass over a healed plugin reports nothing.
func (h *Healer) Heal(plugin *domain.LoadedPlugin) (domain.HealResult, error) {
	result := domain.HealResult{Healed: []string{}, Warnings: []string{}}

	steps := []func(*domain.LoadedPlugin, *domain.HealResult) error{
		h.healEmptyAssets,
		h.healMissingPrimaryAgent,
		h.healSpecification,
		h.healDeprecatedHookNames,
	}
	for _, step := range steps {
		if err := step(plugin, &result); err != nil {
			return result, err
		}
	}

	for _, healed := range result.Healed {
		h.logger.Info().Str("dir", plugin.Dir).Msg(healed)
	}
	for _, warning := range result.Warnings {
		h.logger.Warn().Str("dir", plugin.Dir).Msg(warning)
	}

	return result, nil
}

// healEmptyAssets replaces zero-byte agents and hooks with skeletons
func (h *Healer) healEmptyAssets(plugin *domain.LoadedPlugin, result *domain.HealResult) error {
	for _, id := range plugin.AgentIDs() {
		agent := plugin.Agents[id]
		if agent.Size != 0 {
			continue
		}
		if err := h.repo.WriteFile(agent.Path, []byte(AgentSkeleton(id))); err != nil {
			return fmt.Errorf("failed to write agent skeleton %s: %w", agent.Path, err)
		}
		result.Healed = append(result.Healed, fmt.Sprintf("replaced empty agent %s with a skeleton", h.rel(plugin, agent.Path)))
	}

	for _, id := range plugin.HookIDs() {
		hook := plugin.Hooks[id]
		if hook.Size != 0 {
			continue
		}
		if err := h.repo.WriteFile(hook.Path, []byte(HookSkeleton(hook.FileName))); err != nil {
			return fmt.Errorf("failed to write hook skeleton %s: %w", hook.Path, err)
		}
		result.Healed = append(result.Healed, fmt.Sprintf("replaced empty hook %s with an allow-all stub", h.rel(plugin, hook.Path)))
	}
	return nil
}

// healMissingPrimaryAgent creates agents/gm.md when no gm agent exists
func (h *Healer) healMissingPrimaryAgent(plugin *domain.LoadedPlugin, result *domain.HealResult) error {
	if _, ok := plugin.Agents[domain.PrimaryAgentID]; ok {
		return nil
	}

	path := filepath.Join(plugin.Dir, domain.AgentsDir, domain.PrimaryAgentID+loader.AgentExtension)
	if h.repo.Exists(path) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s exists but was not loaded; left untouched", h.rel(plugin, path)))
		return nil
	}
	if err := h.repo.WriteFile(path, []byte(AgentSkeleton(domain.PrimaryAgentID))); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	result.Healed = append(result.Healed, fmt.Sprintf("created missing agent %s", h.rel(plugin, path)))
	return nil
}

// healSpecification lowercases the name and fills missing description and
// keywords, rewriting the specification file once if anything changed
func (h *Healer) healSpecification(plugin *domain.LoadedPlugin, result *domain.HealResult) error {
	if plugin.Spec == nil || plugin.SpecPath == "" {
		return nil
	}

	raw := maps.Clone(plugin.Raw)
	if raw == nil {
		raw = map[string]any{}
	}
	changed := false

	if name := plugin.Spec.Name; name != "" && name != strings.ToLower(name) {
		raw["name"] = strings.ToLower(name)
		changed = true
		result.Healed = append(result.Healed, fmt.Sprintf("lowercased name %q to %q", name, strings.ToLower(name)))
	}

	if strings.TrimSpace(plugin.Spec.Description) == "" {
		raw["description"] = PlaceholderDescription
		changed = true
		result.Healed = append(result.Healed, "added placeholder description")
		result.Warnings = append(result.Warnings, "description is a placeholder and needs review")
	}

	if len(plugin.Spec.Keywords) == 0 {
		keywords := make([]any, len(PlaceholderKeywords))
		for i, k := range PlaceholderKeywords {
			keywords[i] = k
		}
		raw["keywords"] = keywords
		changed = true
		result.Healed = append(result.Healed, "added placeholder keywords")
		result.Warnings = append(result.Warnings, "keywords are placeholders and need review")
	}

	if !changed {
		return nil
	}
	return h.writer.WriteSpec(plugin.SpecPath, plugin.Format, raw)
}

// healDeprecatedHookNames renames legacy hook files unless the target exists
func (h *Healer) healDeprecatedHookNames(plugin *domain.LoadedPlugin, result *domain.HealResult) error {
	for _, id := range plugin.HookIDs() {
		hook := plugin.Hooks[id]
		newName, deprecated := DeprecatedHookNames[hook.FileName]
		if !deprecated {
			continue
		}

		target := filepath.Join(filepath.Dir(hook.Path), newName)
		if h.repo.Exists(target) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"hook %s uses a deprecated name but %s already exists; left untouched",
				h.rel(plugin, hook.Path), h.rel(plugin, target)))
			continue
		}
		if err := h.repo.Rename(hook.Path, target); err != nil {
			return fmt.Errorf("failed to rename %s: %w", hook.Path, err)
		}
		result.Healed = append(result.Healed, fmt.Sprintf("renamed %s to %s", h.rel(plugin, hook.Path), h.rel(plugin, target)))
	}
	return nil
}

func (h *Healer) rel(plugin *domain.LoadedPlugin, path string) string {
	if rel, err := filepath.Rel(plugin.Dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// joinPluginPath resolves a specification-relative path
func joinPluginPath(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}
