package adapter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/schema"
)

// HookFormat selects how lifecycle hooks are registered with a platform
type HookFormat string

const (
	// HookFormatWrapped is {matcher, hooks: [{type, command, timeout}]}
	HookFormatWrapped HookFormat = "wrapped"
	// HookFormatBare is the inner {type, command, timeout} object directly
	HookFormatBare HookFormat = "bare"
	// HookFormatJSON is a plain list of command strings per event
	HookFormatJSON HookFormat = "json"
	// HookFormatSDK emits a JavaScript plugin module instead of a hooks file
	HookFormatSDK HookFormat = "sdk"
)

// Output locations shared by every CLI platform
const (
	HooksConfigFile = "hooks/hooks.json"
	PluginModule    = "index.js"
	ReadmeFile      = "README.md"
	PackageFile     = "package.json"
)

// toolTokenPattern matches {{tool:<generic>}} placeholders in hook sources
var toolTokenPattern = regexp.MustCompile(`\{\{tool:([a-z_-]+)\}\}`)

// CLIPlatform is the static description of one hook-driven assistant.
// Optional behavior is supplied through the function fields; a nil field
// means the shared default is used.
type CLIPlatform struct {
	Name        string
	Label       string
	ConfigFile  string
	ContextFile string

	// HookEvents maps generic lifecycle ids to platform event names. It must
	// be a bijection.
	HookEvents map[string]string
	HookFormat HookFormat

	// Tools maps generic tool ids to the platform's tool identifiers
	Tools map[string]string

	// RootEnv and ProjectEnv name the variables that point at the installed
	// plugin and the user's project at runtime
	RootEnv    string
	ProjectEnv string

	// SeparateGitStop is set when the platform has its own event for the
	// git check; otherwise it runs under the stop event
	SeparateGitStop bool

	// Timeouts per lifecycle id, in the platform's own unit
	Timeouts       map[string]int
	DefaultTimeout int

	MCPShape MCPShape

	BuildHookCommand func(p *CLIPlatform, hookFile string) string
	FormatConfig     func(p *CLIPlatform, spec *domain.PluginSpecification) (string, error)
	ExtraFiles       func(a *CLIAdapter, spec *domain.PluginSpecification, sourceDir string) (FileMap, error)
}

// HasCustomHookCommand reports whether the platform builds its own commands
func (p *CLIPlatform) HasCustomHookCommand() bool {
	return p.BuildHookCommand != nil
}

// HasCustomConfig reports whether the platform renders its own config file
func (p *CLIPlatform) HasCustomConfig() bool {
	return p.FormatConfig != nil
}

// EventFor returns the platform event for a generic lifecycle id
func (p *CLIPlatform) EventFor(lifecycle string) (string, bool) {
	event, ok := p.HookEvents[lifecycle]
	return event, ok
}

// GenericEvent is the reverse of EventFor
func (p *CLIPlatform) GenericEvent(event string) (string, bool) {
	for lifecycle, e := range p.HookEvents {
		if e == event {
			return lifecycle, true
		}
	}
	return "", false
}

// TranslateTool maps a generic tool id to the platform's identifier. Unknown
// ids are returned unchanged.
func (p *CLIPlatform) TranslateTool(generic string) string {
	if tool, ok := p.Tools[generic]; ok {
		return tool
	}
	return generic
}

// ToolMatcher lists the platform tools in generic order, joined for a matcher
func (p *CLIPlatform) ToolMatcher() string {
	tools := make([]string, 0, len(domain.GenericTools))
	for _, generic := range domain.GenericTools {
		if tool, ok := p.Tools[generic]; ok {
			tools = append(tools, tool)
		}
	}
	return strings.Join(tools, "|")
}

// RootPlaceholder is the runtime reference to the installed plugin directory
func (p *CLIPlatform) RootPlaceholder() string {
	return "${" + p.RootEnv + "}"
}

// ProjectPlaceholder is the runtime reference to the user's project
func (p *CLIPlatform) ProjectPlaceholder() string {
	return "${" + p.ProjectEnv + "}"
}

// HookCommand returns the command line that runs an installed hook file
func (p *CLIPlatform) HookCommand(hookFile string) string {
	if p.HasCustomHookCommand() {
		return p.BuildHookCommand(p, hookFile)
	}
	return defaultHookCommand(p, hookFile)
}

func defaultHookCommand(p *CLIPlatform, hookFile string) string {
	script := fmt.Sprintf(`"%s/%s/%s"`, p.RootPlaceholder(), domain.HooksDir, hookFile)
	if interpreter := Interpreter(hookFile); interpreter != "" {
		return interpreter + " " + script
	}
	return script
}

// Timeout returns the configured timeout for a lifecycle id
func (p *CLIPlatform) Timeout(lifecycle string) int {
	if t, ok := p.Timeouts[lifecycle]; ok {
		return t
	}
	return p.DefaultTimeout
}

// ReplaceToolTokens substitutes {{tool:<generic>}} placeholders
func (p *CLIPlatform) ReplaceToolTokens(content string) string {
	return toolTokenPattern.ReplaceAllStringFunc(content, func(token string) string {
		return p.TranslateTool(toolTokenPattern.FindStringSubmatch(token)[1])
	})
}

// hookLifecycle recovers the lifecycle id from an installed hook file name
func hookLifecycle(file string) string {
	return domain.LifecycleID(strings.TrimSuffix(file, path.Ext(file)))
}

// Interpreter picks the program that runs a hook file from its extension
func Interpreter(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".js", ".mjs", ".cjs":
		return "node"
	case ".py":
		return "python3"
	case ".sh":
		return "bash"
	default:
		return ""
	}
}

type commandHook struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

type wrappedHook struct {
	Matcher string        `json:"matcher"`
	Hooks   []commandHook `json:"hooks"`
}

// EventHooks is one platform event with the hook files it runs
type EventHooks struct {
	Event     string
	Lifecycle string
	Files     []string
}

// Events groups the available hook files (lifecycle id to installed file
// name) by platform event, in lifecycle order
func (p *CLIPlatform) Events(available map[string]string) []EventHooks {
	var events []EventHooks
	for _, lifecycle := range domain.LifecycleEvents {
		event, ok := p.EventFor(lifecycle)
		if !ok {
			continue
		}
		var files []string
		if file, ok := available[lifecycle]; ok {
			files = append(files, file)
		}
		if lifecycle == domain.HookStop && !p.SeparateGitStop {
			if file, ok := available[domain.HookStopGit]; ok {
				files = append(files, file)
			}
		}
		if len(files) > 0 {
			events = append(events, EventHooks{Event: event, Lifecycle: lifecycle, Files: files})
		}
	}

	if p.SeparateGitStop {
		if file, ok := available[domain.HookStopGit]; ok {
			if event, ok := p.EventFor(domain.HookStopGit); ok {
				events = append(events, EventHooks{Event: event, Lifecycle: domain.HookStopGit, Files: []string{file}})
			}
		}
	}
	return events
}

// HooksMap builds the platform's hook registration for the available files
func (p *CLIPlatform) HooksMap(available map[string]string) map[string]any {
	hooks := make(map[string]any)
	for _, e := range p.Events(available) {
		commands := make([]commandHook, 0, len(e.Files))
		for _, file := range e.Files {
			commands = append(commands, commandHook{
				Type:    "command",
				Command: p.HookCommand(file),
				Timeout: p.Timeout(hookLifecycle(file)),
			})
		}

		switch p.HookFormat {
		case HookFormatWrapped:
			matcher := "*"
			if e.Lifecycle == domain.HookPreToolUse {
				matcher = p.ToolMatcher()
			}
			hooks[e.Event] = []wrappedHook{{Matcher: matcher, Hooks: commands}}
		case HookFormatBare:
			hooks[e.Event] = commands
		case HookFormatJSON:
			lines := make([]string, 0, len(commands))
			for _, c := range commands {
				lines = append(lines, c.Command)
			}
			hooks[e.Event] = lines
		}
	}
	return hooks
}

// CLIAdapter generates the layout of a hook-driven assistant
type CLIAdapter struct {
	Base
	platform *CLIPlatform
}

// NewCLIAdapter creates an adapter for platform
func NewCLIAdapter(platform *CLIPlatform, base Base) *CLIAdapter {
	return &CLIAdapter{Base: base, platform: platform}
}

// Family returns FamilyCLI
func (a *CLIAdapter) Family() Family {
	return FamilyCLI
}

// Platform returns the static platform description
func (a *CLIAdapter) Platform() *CLIPlatform {
	return a.platform
}

// hookSource is a resolved hook file
type hookSource struct {
	lifecycle string
	file      string // installed file name
	content   *string
}

// resolveHooks finds the source file of every canonical hook
func (a *CLIAdapter) resolveHooks(spec *domain.PluginSpecification, sourceDir string) []hookSource {
	var hooks []hookSource
	for _, lifecycle := range domain.CanonicalHooks {
		hookID := domain.HookFileID(lifecycle)
		candidates := []string{spec.Hooks[lifecycle], spec.Hooks[hookID]}
		for _, ext := range domain.HookExtensions {
			candidates = append(candidates,
				path.Join(domain.HooksDir, hookID+ext),
				path.Join(domain.HooksDir, lifecycle+ext))
		}

		rel, ok := a.ResolveSourceFile(sourceDir, candidates...)
		if !ok {
			continue
		}
		hooks = append(hooks, hookSource{
			lifecycle: lifecycle,
			file:      hookID + path.Ext(rel),
			content:   a.ReadSourceFile(sourceDir, rel),
		})
	}
	return hooks
}

// CreateFileStructure renders manifests, hook registration, hook copies,
// agents, skills and docs for the platform
func (a *CLIAdapter) CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	p := a.platform
	files := FileMap{}

	hooks := a.resolveHooks(spec, sourceDir)
	available := make(map[string]string, len(hooks))
	for _, hook := range hooks {
		if hook.content == nil {
			continue
		}
		content := *hook.content
		if hook.lifecycle == domain.HookPreToolUse {
			content = p.ReplaceToolTokens(content)
		}
		files.Set(path.Join(domain.HooksDir, hook.file), content)
		available[hook.lifecycle] = hook.file
	}

	if p.HookFormat == HookFormatSDK {
		files.Set(PluginModule, a.pluginModule(spec, available))
	} else {
		hooksJSON, err := marshalJSON(map[string]any{"hooks": p.HooksMap(available)})
		if err != nil {
			return nil, err
		}
		files.Set(HooksConfigFile, hooksJSON)
	}

	config, err := a.config(spec)
	if err != nil {
		return nil, err
	}
	files.Set(p.ConfigFile, config)

	var extra map[string]any
	if p.HookFormat == HookFormatSDK {
		extra = map[string]any{"main": PluginModule, "type": "module"}
	}
	pkg, err := a.PackageJSON(spec, extra)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateManifest(schema.KindPackage, []byte(pkg)); err != nil {
		return nil, err
	}
	files.Set(PackageFile, pkg)

	gm := a.ReadAgent(spec, sourceDir, domain.PrimaryAgentID)
	files.Set(p.ContextFile, contextDocument(spec, p, gm))

	for _, id := range AgentIDs(spec) {
		files[path.Join(domain.AgentsDir, id+".md")] = a.ReadAgent(spec, sourceDir, id)
	}
	for _, name := range a.SkillNames(sourceDir) {
		rel := path.Join(domain.SkillsDir, name, domain.SkillManifestName)
		files[rel] = a.ReadSourceFile(sourceDir, rel)
	}

	files.Set(ReadmeFile, a.readme(spec, available))

	if p.ExtraFiles != nil {
		extras, err := p.ExtraFiles(a, spec, sourceDir)
		if err != nil {
			return nil, err
		}
		for rel, content := range extras {
			files[rel] = content
		}
	}

	return files, nil
}

func (a *CLIAdapter) config(spec *domain.PluginSpecification) (string, error) {
	p := a.platform
	if p.HasCustomConfig() {
		return p.FormatConfig(p, spec)
	}

	config, err := a.MCPJSON(spec, p.MCPShape)
	if err != nil {
		return "", err
	}
	if p.MCPShape == MCPShapeServers {
		if err := schema.ValidateManifest(schema.KindMCPConfig, []byte(config)); err != nil {
			return "", err
		}
	}
	return config, nil
}

// pluginModule renders the JavaScript entry point of SDK-style platforms. Each
// registered event spawns the installed hook files in order.
func (a *CLIAdapter) pluginModule(spec *domain.PluginSpecification, available map[string]string) string {
	p := a.platform
	var b strings.Builder

	fmt.Fprintf(&b, "// %s plugin for %s. Generated; edit the plugin sources instead.\n", spec.Name, p.Label)
	b.WriteString("import { spawnSync } from 'node:child_process';\n")
	b.WriteString("import { dirname, join } from 'node:path';\n")
	b.WriteString("import { fileURLToPath } from 'node:url';\n\n")
	fmt.Fprintf(&b, "const root = process.env.%s ?? dirname(fileURLToPath(import.meta.url));\n", p.RootEnv)
	fmt.Fprintf(&b, "const project = () => process.env.%s ?? process.cwd();\n\n", p.ProjectEnv)
	b.WriteString(`const run = (file, interpreter, payload) => {
  const script = join(root, 'hooks', file);
  const [cmd, args] = interpreter ? [interpreter, [script]] : [script, []];
  const result = spawnSync(cmd, args, {
    cwd: project(),
    input: JSON.stringify(payload ?? {}),
    encoding: 'utf8',
  });
  if (result.status !== 0) {
    throw new Error(result.stderr || file + ' exited with status ' + result.status);
  }
  return result.stdout;
};

`)
	fmt.Fprintf(&b, "export const %s = async () => ({\n", moduleExportName(spec.Name))
	for _, e := range p.Events(available) {
		fmt.Fprintf(&b, "  '%s': async (input) => {\n", e.Event)
		for _, file := range e.Files {
			fmt.Fprintf(&b, "    run('%s', '%s', input);\n", file, Interpreter(file))
		}
		b.WriteString("  },\n")
	}
	b.WriteString("});\n")
	return b.String()
}

// moduleExportName turns a plugin name into a PascalCase export with a Plugin suffix
func moduleExportName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == ' ':
			upper = true
		case upper && r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
			upper = false
		default:
			b.WriteRune(r)
			upper = false
		}
	}
	s := b.String()
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "P" + s
	}
	return s + "Plugin"
}

func contextDocument(spec *domain.PluginSpecification, p *CLIPlatform, gm *string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", spec.Name)
	if spec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Description)
	}
	fmt.Fprintf(&b, "Plugin files are installed under `%s`; the project root is `%s`.\n",
		p.RootPlaceholder(), p.ProjectPlaceholder())
	if gm != nil {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(*gm))
		b.WriteString("\n")
	}
	return b.String()
}

func (a *CLIAdapter) readme(spec *domain.PluginSpecification, available map[string]string) string {
	p := a.platform
	var b strings.Builder
	fmt.Fprintf(&b, "# %s for %s\n\n", spec.Name, p.Label)
	if spec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Description)
	}
	fmt.Fprintf(&b, "Version %s", spec.Version)
	if spec.License != "" {
		fmt.Fprintf(&b, ", licensed under %s", spec.License)
	}
	b.WriteString(".\n")

	if events := p.Events(available); len(events) > 0 {
		b.WriteString("\n## Hooks\n\n")
		for _, e := range events {
			fmt.Fprintf(&b, "- `%s`: %s\n", e.Event, strings.Join(e.Files, ", "))
		}
	}

	if names := spec.MCPServerNames(); len(names) > 0 {
		fmt.Fprintf(&b, "\n## MCP servers\n\nConfigured in `%s`:\n\n", p.ConfigFile)
		for _, name := range names {
			fmt.Fprintf(&b, "- `%s`: `%s`\n", name, spec.MCP[name].Command)
		}
	}
	return b.String()
}
