package validation

import (
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealer_HealthyPluginIsUntouched(t *testing.T) {
	f := newFixture()
	f.spec["keywords"] = []string{"testing"}
	plugin := f.load(t)
	before := f.repo.Files()

	result, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)

	assert.Empty(t, result.Healed)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, before, f.repo.Files())
}

// Scenario: lowercasing keeps the underscore, so the name rule still fails
func TestHealer_LowercasesNameOnly(t *testing.T) {
	f := newFixture()
	f.spec["name"] = "My_Plugin"
	f.spec["keywords"] = []string{"testing"}
	plugin := f.load(t)

	result, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)
	assert.Equal(t, []string{`lowercased name "My_Plugin" to "my_plugin"`}, result.Healed)
	assert.Equal(t, "My_Plugin", plugin.Spec.Name, "the loaded plugin must not change")

	reloaded := f.reload(t)
	assert.Equal(t, "my_plugin", reloaded.Spec.Name)

	report := NewValidator(f.repo).Validate(reloaded)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "name must match")
}

func TestHealer_PlaceholderMetadata(t *testing.T) {
	f := newFixture()
	delete(f.spec, "description")
	plugin := f.load(t)

	result, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)

	assert.Equal(t, []string{"added placeholder description", "added placeholder keywords"}, result.Healed)
	assert.Equal(t, []string{
		"description is a placeholder and needs review",
		"keywords are placeholders and need review",
	}, result.Warnings)

	reloaded := f.reload(t)
	assert.Equal(t, PlaceholderDescription, reloaded.Spec.Description)
	assert.Equal(t, PlaceholderKeywords, reloaded.Spec.Keywords)
	assert.Equal(t, "my-plugin", reloaded.Spec.Name)
	assert.Equal(t, "tester", reloaded.Spec.Author)
}

func TestHealer_EmptyAssetsAndMissingPrimaryAgent(t *testing.T) {
	f := newFixture()
	f.spec["keywords"] = []string{"testing"}
	delete(f.files, "agents/gm.md")
	f.files["agents/helper.md"] = ""
	f.files["hooks/session-start-hook.sh"] = ""
	plugin := f.load(t)

	result, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"replaced empty agent agents/helper.md with a skeleton",
		"replaced empty hook hooks/session-start-hook.sh with an allow-all stub",
		"created missing agent agents/gm.md",
	}, result.Healed)

	reloaded := f.reload(t)
	assert.Equal(t, AgentSkeleton("gm"), reloaded.Agents["gm"].Content)
	assert.Equal(t, AgentSkeleton("helper"), reloaded.Agents["helper"].Content)
	assert.Contains(t, reloaded.Hooks["session-start-hook"].Content, "#!/bin/sh")

	report := NewValidator(f.repo).Validate(reloaded)
	assert.True(t, report.Valid, "errors: %v", report.Errors)
}

func TestHealer_RenamesDeprecatedHooks(t *testing.T) {
	f := newFixture()
	f.spec["keywords"] = []string{"testing"}
	f.files["hooks/session.js"] = shebangHook
	f.files["hooks/stop.js"] = shebangHook
	plugin := f.load(t)

	result, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)

	assert.Equal(t, []string{"renamed hooks/session.js to hooks/session-start-hook.js"}, result.Healed)
	assert.Equal(t, []string{
		"hook hooks/stop.js uses a deprecated name but hooks/stop-hook.js already exists; left untouched",
	}, result.Warnings)

	assert.False(t, f.repo.Exists(filepath.Join(pluginDir, "hooks", "session.js")))
	assert.True(t, f.repo.Exists(filepath.Join(pluginDir, "hooks", "session-start-hook.js")))
	assert.True(t, f.repo.Exists(filepath.Join(pluginDir, "hooks", "stop.js")))
}

func TestHealer_YAMLSpecificationStaysYAML(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.repo.WriteFile(filepath.Join(pluginDir, "plugin.yaml"),
		[]byte("name: Yaml-Plugin\nversion: 1.0.0\nauthor: tester\nlicense: MIT\n")))
	for rel, content := range f.files {
		require.NoError(t, f.repo.WriteFile(filepath.Join(pluginDir, rel), []byte(content)))
	}
	plugin := f.reload(t)

	_, err := NewHealer(f.repo, zerolog.Nop()).Heal(plugin)
	require.NoError(t, err)

	data, err := f.repo.ReadFile(filepath.Join(pluginDir, "plugin.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: yaml-plugin")
	assert.False(t, f.repo.Exists(filepath.Join(pluginDir, "plugin.json")))
}

// Feature: github.com/plugforge/plugforge, Property 3: Healing is idempotent
func TestProperty_HealIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a second heal after reload reports nothing", prop.ForAll(
		func(upperName, dropDescription, dropPrimary, emptyHook, legacyHook bool) bool {
			f := newFixture()
			if upperName {
				f.spec["name"] = "My-Plugin"
			}
			if dropDescription {
				delete(f.spec, "description")
			}
			if dropPrimary {
				delete(f.files, "agents/gm.md")
			}
			if emptyHook {
				f.files["hooks/pre-tool-use-hook.js"] = ""
			}
			if legacyHook {
				f.files["hooks/prompt.js"] = shebangHook
			}

			healer := NewHealer(f.repo, zerolog.Nop())
			if _, err := healer.Heal(f.load(t)); err != nil {
				return false
			}
			second, err := healer.Heal(f.reload(t))
			if err != nil {
				return false
			}
			return len(second.Healed) == 0
		},
		gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
