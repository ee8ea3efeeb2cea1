package domain

import (
	"maps"
	"slices"
	"strings"
)

// SpecFormat identifies the on-disk encoding of the specification file
type SpecFormat string

const (
	FormatJSON SpecFormat = "json"
	FormatYAML SpecFormat = "yaml"
)

// Conventional subdirectories of a plugin directory
const (
	AgentsDir         = "agents"
	HooksDir          = "hooks"
	SkillsDir         = "skills"
	SkillManifestName = "SKILL.md"
	PrimaryAgentID    = "gm"
)

// Canonical hook lifecycle ids
const (
	HookPreToolUse   = "pre-tool-use"
	HookSessionStart = "session-start"
	HookPromptSubmit = "prompt-submit"
	HookStop         = "stop"
	HookStopGit      = "stop-git"
)

// HookExtensions are the interpreter file extensions a hook file may carry,
// in resolution order
var HookExtensions = []string{".js", ".mjs", ".cjs", ".sh", ".py"}

// HookSuffix is appended to a lifecycle id to form the conventional hook id
const HookSuffix = "-hook"

// CanonicalHooks lists every lifecycle id a hook may implement
var CanonicalHooks = []string{HookPreToolUse, HookSessionStart, HookPromptSubmit, HookStop, HookStopGit}

// LifecycleEvents lists the generic events a host platform invokes. stop-git
// is not an event of its own; it runs alongside stop unless a platform
// exposes a separate event for it.
var LifecycleEvents = []string{HookSessionStart, HookPreToolUse, HookPromptSubmit, HookStop}

// Generic tool ids mapped to each platform's own tool identifiers
const (
	ToolBash   = "bash"
	ToolWrite  = "write"
	ToolGlob   = "glob"
	ToolGrep   = "grep"
	ToolSearch = "search"
)

// GenericTools lists every generic tool id
var GenericTools = []string{ToolBash, ToolWrite, ToolGlob, ToolGrep, ToolSearch}

// BundledAgents are the agent documents every extension package ships
var BundledAgents = []string{PrimaryAgentID, "codesearch", "websearch"}

// LifecycleID strips the hook suffix from a hook id
func LifecycleID(hookID string) string {
	return strings.TrimSuffix(hookID, HookSuffix)
}

// HookFileID returns the conventional hook id for a lifecycle id
func HookFileID(lifecycle string) string {
	return lifecycle + HookSuffix
}

// Asset is one convention-discovered file of the plugin directory
type Asset struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Content  string `json:"-"`
	Size     int64  `json:"size"`
}

// LoadedPlugin is the result of one convention load: the parsed specification
// plus the assets found under agents/, hooks/ and skills/.
type LoadedPlugin struct {
	Dir      string               `json:"dir"`
	SpecPath string               `json:"spec_path"`
	Format   SpecFormat           `json:"format"`
	Spec     *PluginSpecification `json:"spec"`
	Raw      map[string]any       `json:"-"` // decoded document as written on disk

	Agents map[string]Asset `json:"agents"`
	Hooks  map[string]Asset `json:"hooks"`
	Skills map[string]Asset `json:"skills"`

	// Paths records the specification file and every asset file read during
	// the load, in load order
	Paths []string `json:"paths"`
}

// AgentIDs returns agent ids in sorted order
func (p *LoadedPlugin) AgentIDs() []string {
	return slices.Sorted(maps.Keys(p.Agents))
}

// HookIDs returns hook ids in sorted order
func (p *LoadedPlugin) HookIDs() []string {
	return slices.Sorted(maps.Keys(p.Hooks))
}

// SkillNames returns skill names in sorted order
func (p *LoadedPlugin) SkillNames() []string {
	return slices.Sorted(maps.Keys(p.Skills))
}
