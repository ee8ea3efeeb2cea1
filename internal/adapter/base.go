// Package adapter translates one plugin specification into the file layout of
// each supported host platform.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"slices"

	"github.com/plugforge/plugforge/internal/cache"
	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// Family groups platforms by integration style
type Family string

const (
	FamilyCLI       Family = "cli"
	FamilyExtension Family = "extension"
)

// ReferencePlatform is the platform whose source directory acts as the last
// agent fallback
const ReferencePlatform = "cc"

// FileMap maps an output-relative path to its content. A nil entry marks an
// optional asset that was not found and is skipped when writing.
type FileMap map[string]*string

// Set stores content at path
func (m FileMap) Set(path, content string) {
	m[path] = &content
}

// Paths returns every path with content, sorted
func (m FileMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p, content := range m {
		if content != nil {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return paths
}

// Adapter produces the file layout of one platform. The specification passed
// in is shared between adapters and must be treated as read-only.
type Adapter interface {
	Name() string
	Family() Family
	CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error)
}

// Base holds the helpers every adapter shares
type Base struct {
	name  string
	repo  storage.Repository
	cache *cache.LRUCache
}

// NewBase creates helpers for the named platform. A nil cache disables caching.
func NewBase(name string, repo storage.Repository, c *cache.LRUCache) Base {
	return Base{name: name, repo: repo, cache: c}
}

// Name returns the platform id
func (b Base) Name() string {
	return b.name
}

// ResolveSourceFile returns the first candidate that exists under sourceDir
func (b Base) ResolveSourceFile(sourceDir string, candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		full := sourcePath(sourceDir, candidate)
		if b.repo.Exists(full) && !b.repo.IsDir(full) {
			return candidate, true
		}
	}
	return "", false
}

// ReadSourceFile returns the content of the first candidate that exists, or
// nil when none does. Read failures are treated as absence.
func (b Base) ReadSourceFile(sourceDir string, candidates ...string) *string {
	rel, ok := b.ResolveSourceFile(sourceDir, candidates...)
	if !ok {
		return nil
	}

	full := sourcePath(sourceDir, rel)
	if b.cache != nil {
		if data, hit := b.cache.Get(full); hit {
			content := string(data)
			return &content
		}
	}

	data, err := b.repo.ReadFile(full)
	if err != nil {
		return nil
	}
	if b.cache != nil {
		b.cache.Set(full, data)
	}
	content := string(data)
	return &content
}

// AgentSourcePaths lists where an agent document may live, in lookup order
func (b Base) AgentSourcePaths(agentID string) []string {
	file := agentID + ".md"
	paths := []string{
		path.Join(b.name, domain.AgentsDir, file),
		path.Join(domain.AgentsDir, file),
	}
	if b.name != ReferencePlatform {
		paths = append(paths, path.Join(ReferencePlatform, domain.AgentsDir, file))
	}
	return paths
}

// AgentIDs returns the bundled agents plus every agent the specification
// declares, sorted
func AgentIDs(spec *domain.PluginSpecification) []string {
	ids := slices.Clone(domain.BundledAgents)
	for id := range spec.Agents {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ReadAgent looks up an agent document, honoring a path declared in the
// specification before the fallback order
func (b Base) ReadAgent(spec *domain.PluginSpecification, sourceDir, agentID string) *string {
	candidates := b.AgentSourcePaths(agentID)
	if declared := spec.Agents[agentID]; declared != "" {
		candidates = append([]string{declared}, candidates...)
	}
	return b.ReadSourceFile(sourceDir, candidates...)
}

// SkillNames lists skills/<name>/SKILL.md entries under sourceDir
func (b Base) SkillNames(sourceDir string) []string {
	entries, err := b.repo.ReadDir(filepath.Join(sourceDir, domain.SkillsDir))
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		manifest := filepath.Join(sourceDir, domain.SkillsDir, entry.Name, domain.SkillManifestName)
		if b.repo.Exists(manifest) {
			names = append(names, entry.Name)
		}
	}
	return names
}

// PackageJSON renders the npm package manifest. Entries in extra override the
// fields derived from the specification.
func (b Base) PackageJSON(spec *domain.PluginSpecification, extra map[string]any) (string, error) {
	doc := map[string]any{
		"name":    spec.Name,
		"version": spec.Version,
	}
	setIf(doc, "description", spec.Description)
	setIf(doc, "author", spec.Author)
	setIf(doc, "license", spec.License)
	setIf(doc, "homepage", spec.Homepage)
	if len(spec.Keywords) > 0 {
		doc["keywords"] = slices.Clone(spec.Keywords)
	}
	if len(spec.Engines) > 0 {
		doc["engines"] = maps.Clone(spec.Engines)
	}
	maps.Copy(doc, extra)

	return marshalJSON(doc)
}

// MCPShape selects how MCP servers are serialized
type MCPShape int

const (
	// MCPShapeServers is {"mcpServers": {name: {command, args, timeout, env}}}
	MCPShapeServers MCPShape = iota
	// MCPShapeLocal is {"mcp": {name: {type: "local", command: [cmd, args...]}}}
	MCPShapeLocal
)

type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Timeout *int64            `json:"timeout,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type mcpLocalEntry struct {
	Type        string            `json:"type"`
	Command     []string          `json:"command"`
	Enabled     bool              `json:"enabled"`
	Timeout     *int64            `json:"timeout,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
}

// MCPServers returns per-server entries in the requested shape, copied from
// the specification
func MCPServers(spec *domain.PluginSpecification, shape MCPShape) map[string]any {
	servers := make(map[string]any, len(spec.MCP))
	for _, name := range spec.MCPServerNames() {
		server := spec.MCP[name].Clone()
		switch shape {
		case MCPShapeLocal:
			servers[name] = mcpLocalEntry{
				Type:        "local",
				Command:     append([]string{server.Command}, server.Args...),
				Enabled:     true,
				Timeout:     server.Timeout,
				Environment: server.Env,
			}
		default:
			servers[name] = mcpServerEntry{
				Command: server.Command,
				Args:    server.Args,
				Timeout: server.Timeout,
				Env:     server.Env,
			}
		}
	}
	return servers
}

// MCPJSON renders the MCP configuration document in the requested shape
func (b Base) MCPJSON(spec *domain.PluginSpecification, shape MCPShape) (string, error) {
	key := "mcpServers"
	if shape == MCPShapeLocal {
		key = "mcp"
	}
	return marshalJSON(map[string]any{key: MCPServers(spec, shape)})
}

func setIf(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

// marshalJSON renders v as two-space indented JSON with a trailing newline
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.String(), nil
}

func sourcePath(sourceDir, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(sourceDir, filepath.FromSlash(rel))
}
