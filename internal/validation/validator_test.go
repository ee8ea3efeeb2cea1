package validation

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/loader"
	"github.com/plugforge/plugforge/internal/storage"
)

const pluginDir = "/plugin"

const shebangHook = "#!/usr/bin/env node\nprocess.exit(0);\n"

// fixture builds a plugin directory in memory and loads it
type fixture struct {
	repo  *storage.MemoryRepository
	spec  map[string]any
	files map[string]string
}

func newFixture() *fixture {
	return &fixture{
		repo: storage.NewMemoryRepository(),
		spec: map[string]any{
			"name":        "my-plugin",
			"version":     "1.0.0",
			"description": "A plugin used by the validator tests",
			"author":      "tester",
			"license":     "MIT",
		},
		files: map[string]string{
			"agents/gm.md":       "---\nname: gm\n---\nYou are gm.\n",
			"hooks/stop-hook.js": shebangHook,
		},
	}
}

func (f *fixture) load(t *testing.T) *domain.LoadedPlugin {
	t.Helper()
	data, err := json.Marshal(f.spec)
	require.NoError(t, err)
	require.NoError(t, f.repo.WriteFile(filepath.Join(pluginDir, "plugin.json"), data))
	for rel, content := range f.files {
		require.NoError(t, f.repo.WriteFile(filepath.Join(pluginDir, rel), []byte(content)))
	}
	return f.reload(t)
}

func (f *fixture) reload(t *testing.T) *domain.LoadedPlugin {
	t.Helper()
	loaded, err := loader.NewConventionLoader(f.repo, "", zerolog.Nop()).Load(pluginDir)
	require.NoError(t, err)
	return loaded
}

// Scenario: minimal valid plugin with one gm agent and one shebang stop hook
func TestValidator_ValidPlugin(t *testing.T) {
	f := newFixture()
	report := NewValidator(f.repo).Validate(f.load(t))

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, domain.ValidationSummary{Agents: 1, Hooks: 1}, report.Summary)
	assert.Contains(t, report.Info, "loaded 0 skill(s)")
	assert.Contains(t, report.Info, "specification format: json")
}

func TestValidator_MissingRequiredFields(t *testing.T) {
	f := newFixture()
	delete(f.spec, "version")
	delete(f.spec, "license")

	report := NewValidator(f.repo).Validate(f.load(t))

	assert.False(t, report.Valid)
	assert.Equal(t, []string{
		"missing required field: version",
		"missing required field: license",
	}, report.Errors)
	assert.Equal(t, 2, report.Summary.Errors)
}

// Scenario: invalid casing and underscore yields exactly one name error
func TestValidator_InvalidName(t *testing.T) {
	f := newFixture()
	f.spec["name"] = "My_Plugin"

	report := NewValidator(f.repo).Validate(f.load(t))

	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "name must match")
}

func TestValidator_FieldFormats(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		message string
	}{
		{"version without patch", "version", "1.0", "version must be semantic"},
		{"version with leading v", "version", "v1.0.0", "version must be semantic"},
		{"license outside allow-list", "license", "WTFPL", "license must be one of"},
		{"homepage without scheme", "homepage", "example.com", "homepage must start with a URL scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.spec[tt.field] = tt.value

			report := NewValidator(f.repo).Validate(f.load(t))
			require.Len(t, report.Errors, 1)
			assert.Contains(t, report.Errors[0], tt.message)
		})
	}
}

func TestValidator_AcceptedFormats(t *testing.T) {
	f := newFixture()
	f.spec["version"] = "2.0.0-rc.1"
	f.spec["license"] = "BSD-3-Clause"
	f.spec["homepage"] = "git+ssh://example.com/repo"

	report := NewValidator(f.repo).Validate(f.load(t))
	assert.True(t, report.Valid, "errors: %v", report.Errors)
}

// Scenario: no agents fires both the no-agents and the gm rule
func TestValidator_NoAgents(t *testing.T) {
	f := newFixture()
	delete(f.files, "agents/gm.md")

	report := NewValidator(f.repo).Validate(f.load(t))

	assert.False(t, report.Valid)
	assert.Contains(t, report.Errors, "no agents found in agents/")
	assert.Contains(t, report.Errors, "gm.md required but not found")
	assert.Len(t, report.Errors, 2)
}

func TestValidator_EmptyPrimaryAgent(t *testing.T) {
	f := newFixture()
	f.files["agents/gm.md"] = "  \n"

	report := NewValidator(f.repo).Validate(f.load(t))
	assert.Equal(t, []string{"gm.md must not be empty"}, report.Errors)
}

func TestValidator_Hooks(t *testing.T) {
	t.Run("no hooks", func(t *testing.T) {
		f := newFixture()
		delete(f.files, "hooks/stop-hook.js")

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.Equal(t, []string{"no hooks found in hooks/"}, report.Errors)
	})

	t.Run("empty hook", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/stop-hook.js"] = ""

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.Equal(t, []string{"hook stop-hook is empty"}, report.Errors)
	})

	t.Run("module export is accepted", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/stop-hook.js"] = "module.exports = async () => ({ decision: 'allow' });\n"

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.True(t, report.Valid)
		assert.Empty(t, report.Warnings)
	})

	t.Run("esm export is accepted", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/stop-hook.js"] = "export default function stop() {}\n"

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.Empty(t, report.Warnings)
	})

	t.Run("neither shebang nor module", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/stop-hook.js"] = "console.log('hi')\n"

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.True(t, report.Valid)
		assert.Equal(t, []string{"hook stop-hook has neither a shebang nor a module export"}, report.Warnings)
	})

	t.Run("naming drift is a warning", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/stop.js"] = shebangHook

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.True(t, report.Valid)
		assert.Equal(t, []string{"hook stop does not follow the {name}-hook naming convention"}, report.Warnings)
	})

	t.Run("unknown lifecycle", func(t *testing.T) {
		f := newFixture()
		f.files["hooks/teardown-hook.js"] = shebangHook

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "hook teardown-hook does not implement a known lifecycle event")
	})
}

// Scenario: MCP timeouts below the minimum fail, very large ones only warn
func TestValidator_MCPTimeout(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		f := newFixture()
		f.spec["mcp"] = map[string]any{"search": map[string]any{"command": "npx", "timeout": 500}}

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.Equal(t, []string{"mcp.search: timeout must be >= 1000ms"}, report.Errors)
	})

	t.Run("very large", func(t *testing.T) {
		f := newFixture()
		f.spec["mcp"] = map[string]any{"search": map[string]any{"command": "npx", "timeout": 5000000}}

		report := NewValidator(f.repo).Validate(f.load(t))
		assert.Empty(t, report.Errors)
		assert.Equal(t, []string{"mcp.search: timeout of 5000000ms exceeds 1 hour"}, report.Warnings)
	})

	t.Run("beyond int64", func(t *testing.T) {
		for _, timeout := range []float64{9.5e18, 1e19, 1e30} {
			f := newFixture()
			f.spec["mcp"] = map[string]any{"search": map[string]any{"command": "npx", "timeout": timeout}}

			report := NewValidator(f.repo).Validate(f.load(t))
			assert.Empty(t, report.Errors, "timeout %g", timeout)
			assert.Len(t, report.Warnings, 1, "timeout %g", timeout)
		}
	})
}

func TestValidator_MCPShape(t *testing.T) {
	f := newFixture()
	f.spec["mcp"] = map[string]any{
		"a": map[string]any{"args": []any{"x"}},
		"b": map[string]any{"command": "node", "args": "--inline"},
		"c": map[string]any{"command": 7, "timeout": "slow"},
		"d": map[string]any{"command": "node", "args": []any{"server.js"}, "timeout": 30000},
	}

	report := NewValidator(f.repo).Validate(f.load(t))

	assert.Equal(t, []string{
		"mcp.a: command is required",
		"mcp.b: args must be a list",
		"mcp.c: command must be a string",
		"mcp.c: timeout must be a number",
	}, report.Errors)
}

func TestValidator_StalePaths(t *testing.T) {
	f := newFixture()
	loaded := f.load(t)

	f.repo.Remove(filepath.Join(pluginDir, "hooks", "stop-hook.js"))

	report := NewValidator(f.repo).Validate(loaded)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"path no longer exists: /plugin/hooks/stop-hook.js"}, report.Errors)
}

func TestValidator_DeclaredPathsAndShortDescription(t *testing.T) {
	f := newFixture()
	f.spec["description"] = "short"
	f.spec["agents"] = map[string]any{"gm": "agents/gm.md", "helper": "agents/helper.md"}

	report := NewValidator(f.repo).Validate(f.load(t))

	assert.True(t, report.Valid)
	assert.Equal(t, []string{
		"description is shorter than 10 characters",
		"agent helper is declared as agents/helper.md but the file does not exist",
	}, report.Warnings)
}

func TestValidator_ErrorsAreNotShortCircuited(t *testing.T) {
	f := newFixture()
	f.spec = map[string]any{"name": "Bad Name", "homepage": "nowhere"}
	f.files = map[string]string{}

	report := NewValidator(f.repo).Validate(f.load(t))

	assert.Equal(t, []string{
		"missing required field: version",
		"missing required field: author",
		"missing required field: license",
		`name must match ^[a-z0-9-]+$ (got "Bad Name")`,
		`homepage must start with a URL scheme (got "nowhere")`,
		"no agents found in agents/",
		"gm.md required but not found",
		"no hooks found in hooks/",
	}, report.Errors)
}

// Feature: github.com/plugforge/plugforge, Property 1: Valid specifications pass validation
func TestProperty_ValidSpecificationsPass(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every well-formed specification validates with zero errors", prop.ForAll(
		func(name string, major, minor, patch int, license string, timeout int) bool {
			f := newFixture()
			f.spec["name"] = name
			f.spec["version"] = fmt.Sprintf("%d.%d.%d", major, minor, patch)
			f.spec["license"] = license
			f.spec["mcp"] = map[string]any{"srv": map[string]any{"command": "node", "timeout": timeout}}

			report := NewValidator(f.repo).Validate(f.load(t))
			return report.Valid && len(report.Errors) == 0
		},
		gen.RegexMatch(`^[a-z0-9][a-z0-9-]{0,20}$`),
		gen.IntRange(0, 99),
		gen.IntRange(0, 99),
		gen.IntRange(0, 99),
		gen.OneConstOf("MIT", "Apache-2.0", "GPL-3.0", "ISC", "BSD-3-Clause", "BSD-2-Clause"),
		gen.IntRange(MinMCPTimeout, WarnMCPTimeout),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: github.com/plugforge/plugforge, Property 2: One error per missing required field
func TestProperty_OneErrorPerMissingField(t *testing.T) {
	properties := gopter.NewProperties(nil)
	fields := []string{"name", "version", "author", "license"}

	properties.Property("removing k required fields yields exactly k errors", prop.ForAll(
		func(mask uint8) bool {
			f := newFixture()
			missing := 0
			for i, field := range fields {
				if mask&(1<<i) != 0 {
					delete(f.spec, field)
					missing++
				}
			}

			report := NewValidator(f.repo).Validate(f.load(t))
			return len(report.Errors) == missing && report.Valid == (missing == 0)
		},
		gen.UInt8Range(0, 15),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
