package adapter

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/schema"
)

// Files only the reference platform emits
const (
	ClaudeManifestFile = ".claude-plugin/plugin.json"
	SpecSchemaFile     = "plugin.schema.json"
)

// ClaudeCode is the reference platform
var ClaudeCode = CLIPlatform{
	Name:        "cc",
	Label:       "Claude Code",
	ConfigFile:  ".mcp.json",
	ContextFile: "CLAUDE.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "SessionStart",
		domain.HookPreToolUse:   "PreToolUse",
		domain.HookPromptSubmit: "UserPromptSubmit",
		domain.HookStop:         "Stop",
	},
	HookFormat: HookFormatWrapped,
	Tools: map[string]string{
		domain.ToolBash:   "Bash",
		domain.ToolWrite:  "Write",
		domain.ToolGlob:   "Glob",
		domain.ToolGrep:   "Grep",
		domain.ToolSearch: "WebSearch",
	},
	RootEnv:    "CLAUDE_PLUGIN_ROOT",
	ProjectEnv: "CLAUDE_PROJECT_DIR",
	Timeouts: map[string]int{
		domain.HookPreToolUse: 10,
		domain.HookStopGit:    120,
	},
	DefaultTimeout: 60,
	MCPShape:       MCPShapeServers,
	ExtraFiles:     claudeExtraFiles,
}

// GeminiCLI registers bare command hooks and keeps MCP servers in its
// extension manifest
var GeminiCLI = CLIPlatform{
	Name:        "gc",
	Label:       "Gemini CLI",
	ConfigFile:  "gemini-extension.json",
	ContextFile: "GEMINI.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "SessionStart",
		domain.HookPreToolUse:   "BeforeTool",
		domain.HookPromptSubmit: "BeforeAgent",
		domain.HookStop:         "AfterAgent",
	},
	HookFormat: HookFormatBare,
	Tools: map[string]string{
		domain.ToolBash:   "run_shell_command",
		domain.ToolWrite:  "write_file",
		domain.ToolGlob:   "glob",
		domain.ToolGrep:   "search_file_content",
		domain.ToolSearch: "google_web_search",
	},
	RootEnv:        "extensionPath",
	ProjectEnv:     "workspacePath",
	DefaultTimeout: 60000,
	MCPShape:       MCPShapeServers,
	FormatConfig:   geminiExtensionConfig,
}

// OpenCode loads a JavaScript plugin module
var OpenCode = CLIPlatform{
	Name:        "oc",
	Label:       "OpenCode",
	ConfigFile:  "opencode.json",
	ContextFile: "AGENTS.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "session.created",
		domain.HookPreToolUse:   "tool.execute.before",
		domain.HookPromptSubmit: "chat.message",
		domain.HookStop:         "session.idle",
	},
	HookFormat: HookFormatSDK,
	Tools: map[string]string{
		domain.ToolBash:   "bash",
		domain.ToolWrite:  "write",
		domain.ToolGlob:   "glob",
		domain.ToolGrep:   "grep",
		domain.ToolSearch: "webfetch",
	},
	RootEnv:      "OPENCODE_PLUGIN_ROOT",
	ProjectEnv:   "OPENCODE_PROJECT_DIR",
	MCPShape:     MCPShapeLocal,
	FormatConfig: openCodeConfig,
}

// Codex lists hook commands per event and keeps MCP servers in TOML
var Codex = CLIPlatform{
	Name:        "codex",
	Label:       "Codex CLI",
	ConfigFile:  "config.toml",
	ContextFile: "AGENTS.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "SessionStart",
		domain.HookPreToolUse:   "PreToolUse",
		domain.HookPromptSubmit: "UserPromptSubmit",
		domain.HookStop:         "Stop",
	},
	HookFormat: HookFormatJSON,
	Tools: map[string]string{
		domain.ToolBash:   "shell",
		domain.ToolWrite:  "apply_patch",
		domain.ToolGlob:   "list_dir",
		domain.ToolGrep:   "grep_files",
		domain.ToolSearch: "web_search",
	},
	RootEnv:      "CODEX_PLUGIN_ROOT",
	ProjectEnv:   "CODEX_PROJECT_DIR",
	MCPShape:     MCPShapeServers,
	FormatConfig: codexConfig,
}

// KiloCode uses wrapped hooks under its own dot directory
var KiloCode = CLIPlatform{
	Name:        "kilo",
	Label:       "Kilo Code",
	ConfigFile:  ".kilocode/mcp.json",
	ContextFile: ".kilocode/rules/plugin.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "sessionStart",
		domain.HookPreToolUse:   "preToolUse",
		domain.HookPromptSubmit: "userPromptSubmit",
		domain.HookStop:         "stop",
	},
	HookFormat: HookFormatWrapped,
	Tools: map[string]string{
		domain.ToolBash:   "execute_command",
		domain.ToolWrite:  "write_to_file",
		domain.ToolGlob:   "list_files",
		domain.ToolGrep:   "search_files",
		domain.ToolSearch: "browser_action",
	},
	RootEnv:        "KILO_PLUGIN_ROOT",
	ProjectEnv:     "KILO_PROJECT_DIR",
	DefaultTimeout: 60,
	MCPShape:       MCPShapeServers,
}

// CopilotCLI runs the git check on its own event and starts every hook from
// the project directory
var CopilotCLI = CLIPlatform{
	Name:        "copilot-cli",
	Label:       "GitHub Copilot CLI",
	ConfigFile:  "mcp-config.json",
	ContextFile: ".github/copilot-instructions.md",
	HookEvents: map[string]string{
		domain.HookSessionStart: "sessionStart",
		domain.HookPreToolUse:   "preToolUse",
		domain.HookPromptSubmit: "userPromptSubmitted",
		domain.HookStop:         "sessionEnd",
		domain.HookStopGit:      "agentStop",
	},
	HookFormat: HookFormatJSON,
	Tools: map[string]string{
		domain.ToolBash:   "shell",
		domain.ToolWrite:  "write",
		domain.ToolGlob:   "glob",
		domain.ToolGrep:   "grep",
		domain.ToolSearch: "web_fetch",
	},
	RootEnv:          "COPILOT_PLUGIN_ROOT",
	ProjectEnv:       "COPILOT_PROJECT_DIR",
	SeparateGitStop:  true,
	MCPShape:         MCPShapeServers,
	BuildHookCommand: copilotHookCommand,
}

// CLIPlatforms lists the hook-driven platforms in registry order
var CLIPlatforms = []*CLIPlatform{&ClaudeCode, &GeminiCLI, &OpenCode, &Codex, &KiloCode, &CopilotCLI}

func copilotHookCommand(p *CLIPlatform, hookFile string) string {
	return fmt.Sprintf(`cd "%s" && %s`, p.ProjectPlaceholder(), defaultHookCommand(p, hookFile))
}

type claudeAuthor struct {
	Name string `json:"name"`
}

type claudeManifest struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Author      claudeAuthor `json:"author"`
	Homepage    string       `json:"homepage,omitempty"`
	License     string       `json:"license,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Hooks       string       `json:"hooks"`
	MCPServers  string       `json:"mcpServers"`
}

func claudeExtraFiles(a *CLIAdapter, spec *domain.PluginSpecification, _ string) (FileMap, error) {
	p := a.Platform()
	manifest, err := marshalJSON(claudeManifest{
		Name:        spec.Name,
		Version:     spec.Version,
		Description: spec.Description,
		Author:      claudeAuthor{Name: spec.Author},
		Homepage:    spec.Homepage,
		License:     spec.License,
		Keywords:    spec.Keywords,
		Hooks:       "./" + HooksConfigFile,
		MCPServers:  "./" + p.ConfigFile,
	})
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateManifest(schema.KindPluginManifest, []byte(manifest)); err != nil {
		return nil, err
	}

	specSchema, err := schema.SpecSchemaJSON()
	if err != nil {
		return nil, err
	}

	files := FileMap{}
	files.Set(ClaudeManifestFile, manifest)
	files.Set(SpecSchemaFile, string(specSchema))
	return files, nil
}

func geminiExtensionConfig(p *CLIPlatform, spec *domain.PluginSpecification) (string, error) {
	return marshalJSON(map[string]any{
		"name":            spec.Name,
		"version":         spec.Version,
		"description":     spec.Description,
		"contextFileName": p.ContextFile,
		"mcpServers":      MCPServers(spec, MCPShapeServers),
	})
}

func openCodeConfig(p *CLIPlatform, spec *domain.PluginSpecification) (string, error) {
	return marshalJSON(map[string]any{
		"$schema":      "https://opencode.ai/config.json",
		"instructions": []string{p.ContextFile},
		"mcp":          MCPServers(spec, MCPShapeLocal),
	})
}

type codexServer struct {
	Command          string            `toml:"command"`
	Args             []string          `toml:"args,omitempty"`
	Env              map[string]string `toml:"env,omitempty"`
	StartupTimeoutMS int64             `toml:"startup_timeout_ms,omitempty"`
}

type codexDocument struct {
	MCPServers map[string]codexServer `toml:"mcp_servers"`
}

func codexConfig(p *CLIPlatform, spec *domain.PluginSpecification) (string, error) {
	doc := codexDocument{MCPServers: make(map[string]codexServer, len(spec.MCP))}
	for _, name := range spec.MCPServerNames() {
		server := spec.MCP[name].Clone()
		entry := codexServer{Command: server.Command, Args: server.Args, Env: server.Env}
		if server.Timeout != nil {
			entry.StartupTimeoutMS = *server.Timeout
		}
		doc.MCPServers[name] = entry
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", p.ConfigFile, err)
	}
	return string(data), nil
}
