package adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plugforge/plugforge/internal/cache"
	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// Extension platform ids
const (
	PlatformVSCode    = "vscode"
	PlatformCursor    = "cursor"
	PlatformZed       = "zed"
	PlatformJetBrains = "jetbrains"
)

// PlatformNames is the fixed generation order
var PlatformNames = []string{
	"cc", "gc", "oc", "codex", "kilo", "copilot-cli",
	PlatformVSCode, PlatformCursor, PlatformZed, PlatformJetBrains,
}

// Registry creates adapters for a fixed, ordered set of platforms
type Registry struct {
	names []string
	repo  storage.Repository
	cache *cache.LRUCache
}

// NewRegistry creates a registry covering every platform
func NewRegistry(repo storage.Repository, c *cache.LRUCache) *Registry {
	return &Registry{names: slices.Clone(PlatformNames), repo: repo, cache: c}
}

// Names returns the platforms of the registry in generation order
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Filter restricts the registry to the named platforms, keeping generation
// order. An empty list keeps every platform.
func (r *Registry) Filter(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	for _, name := range names {
		if !slices.Contains(r.names, name) {
			return nil, unknownPlatform(name)
		}
	}

	filtered := make([]string, 0, len(names))
	for _, name := range r.names {
		if slices.Contains(names, name) {
			filtered = append(filtered, name)
		}
	}
	return &Registry{names: filtered, repo: r.repo, cache: r.cache}, nil
}

// New creates the adapter for one platform
func (r *Registry) New(name string) (Adapter, error) {
	base := NewBase(name, r.repo, r.cache)

	for _, platform := range CLIPlatforms {
		if platform.Name == name {
			return NewCLIAdapter(platform, base), nil
		}
	}

	switch name {
	case PlatformVSCode:
		return NewVSCodeAdapter(base), nil
	case PlatformCursor:
		return NewCursorAdapter(base), nil
	case PlatformZed:
		return NewZedAdapter(base), nil
	case PlatformJetBrains:
		return NewJetBrainsAdapter(base), nil
	}
	return nil, unknownPlatform(name)
}

func unknownPlatform(name string) error {
	return domain.NewAppError(domain.ErrUnknownPlatform,
		fmt.Sprintf("unknown platform %q (known: %s)", name, strings.Join(PlatformNames, ", ")), nil)
}
