// Package validation checks a loaded plugin for structural correctness and
// repairs the subset of defects that can be fixed mechanically.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// Timeout bounds for MCP servers, in milliseconds
const (
	MinMCPTimeout  = 1000
	WarnMCPTimeout = 3_600_000
)

// MinDescriptionLength is the shortest description accepted without a warning
const MinDescriptionLength = 10

// AllowedLicenses is the license allow-list
var AllowedLicenses = []string{"MIT", "Apache-2.0", "GPL-3.0", "ISC", "BSD-3-Clause", "BSD-2-Clause"}

var (
	// namePattern validates plugin names (lowercase alphanumeric with hyphens)
	namePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

	// semVerPattern matches MAJOR.MINOR.PATCH with an optional pre-release
	semVerPattern = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

	// hookNamePattern is the {name}-hook convention
	hookNamePattern = regexp.MustCompile(`^[a-z0-9-]+-hook$`)

	// urlSchemePattern matches an RFC 3986 scheme followed by ://
	urlSchemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

	// modulePattern detects CommonJS or ES module exports
	modulePattern = regexp.MustCompile(`(?m)module\.exports|^\s*exports\.\w+|^\s*export\s`)
)

// IsValidName reports whether name follows the plugin naming rule
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// IsValidSemVer checks if a string is a valid semantic version
func IsValidSemVer(version string) bool {
	return semVerPattern.MatchString(version)
}

// Validator implements domain.SpecValidator. Every rule runs independently and
// all violations are collected.
type Validator struct {
	repo storage.Repository
}

// NewValidator creates a validator that checks recorded paths through repo
func NewValidator(repo storage.Repository) *Validator {
	return &Validator{repo: repo}
}

// report accumulates findings in insertion order
type report struct {
	errors   []string
	warnings []string
	info     []string
}

func (r *report) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *report) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *report) infof(format string, args ...any) {
	r.info = append(r.info, fmt.Sprintf(format, args...))
}

// Validate checks the specification, assets and MCP servers of a loaded plugin
func (v *Validator) Validate(plugin *domain.LoadedPlugin) domain.ValidationReport {
	r := &report{}

	spec := plugin.Spec
	if spec == nil {
		spec = &domain.PluginSpecification{}
	}

	v.validateSpecFields(r, spec)
	v.validateAgents(r, plugin)
	v.validateHooks(r, plugin)
	v.validateDeclaredPaths(r, plugin, spec)
	v.validateMCP(r, spec)
	v.validatePaths(r, plugin)

	r.infof("loaded %d skill(s)", len(plugin.Skills))
	if plugin.Format != "" {
		r.infof("specification format: %s", plugin.Format)
	}

	return domain.ValidationReport{
		Valid:    len(r.errors) == 0,
		Errors:   nonNil(r.errors),
		Warnings: nonNil(r.warnings),
		Info:     nonNil(r.info),
		Summary: domain.ValidationSummary{
			Agents:   len(plugin.Agents),
			Hooks:    len(plugin.Hooks),
			Skills:   len(plugin.Skills),
			Errors:   len(r.errors),
			Warnings: len(r.warnings),
		},
	}
}

func (v *Validator) validateSpecFields(r *report, spec *domain.PluginSpecification) {
	required := []struct {
		field string
		value string
	}{
		{"name", spec.Name},
		{"version", spec.Version},
		{"author", spec.Author},
		{"license", spec.License},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			r.errorf("missing required field: %s", f.field)
		}
	}

	if spec.Name != "" && !IsValidName(spec.Name) {
		r.errorf("name must match %s (got %q)", namePattern.String(), spec.Name)
	}
	if spec.Version != "" && !IsValidSemVer(spec.Version) {
		r.errorf("version must be semantic (MAJOR.MINOR.PATCH[-pre]), got %q", spec.Version)
	}
	if spec.License != "" && !slices.Contains(AllowedLicenses, spec.License) {
		r.errorf("license must be one of %s (got %q)", strings.Join(AllowedLicenses, ", "), spec.License)
	}
	if spec.Homepage != "" && !urlSchemePattern.MatchString(spec.Homepage) {
		r.errorf("homepage must start with a URL scheme (got %q)", spec.Homepage)
	}

	switch desc := strings.TrimSpace(spec.Description); {
	case desc == "":
		r.warnf("description is missing")
	case len(desc) < MinDescriptionLength:
		r.warnf("description is shorter than %d characters", MinDescriptionLength)
	}
}

func (v *Validator) validateAgents(r *report, plugin *domain.LoadedPlugin) {
	if len(plugin.Agents) == 0 {
		r.errorf("no agents found in %s/", domain.AgentsDir)
	}

	gm, ok := plugin.Agents[domain.PrimaryAgentID]
	switch {
	case !ok:
		r.errorf("%s.md required but not found", domain.PrimaryAgentID)
	case strings.TrimSpace(gm.Content) == "":
		r.errorf("%s.md must not be empty", domain.PrimaryAgentID)
	}

	for _, id := range plugin.AgentIDs() {
		if id != domain.PrimaryAgentID && strings.TrimSpace(plugin.Agents[id].Content) == "" {
			r.warnf("agent %s is empty", id)
		}
	}
}

func (v *Validator) validateHooks(r *report, plugin *domain.LoadedPlugin) {
	if len(plugin.Hooks) == 0 {
		r.errorf("no hooks found in %s/", domain.HooksDir)
		return
	}

	for _, id := range plugin.HookIDs() {
		hook := plugin.Hooks[id]
		content := strings.TrimSpace(hook.Content)

		if content == "" {
			r.errorf("hook %s is empty", id)
		} else if !strings.HasPrefix(content, "#!") && !modulePattern.MatchString(content) {
			r.warnf("hook %s has neither a shebang nor a module export", id)
		}

		if !hookNamePattern.MatchString(id) {
			r.warnf("hook %s does not follow the {name}-hook naming convention", id)
		} else if !slices.Contains(domain.CanonicalHooks, domain.LifecycleID(id)) {
			r.warnf("hook %s does not implement a known lifecycle event (%s)", id, strings.Join(domain.CanonicalHooks, ", "))
		}
	}
}

// validateDeclaredPaths warns when the specification references files the
// convention scan did not pick up
func (v *Validator) validateDeclaredPaths(r *report, plugin *domain.LoadedPlugin, spec *domain.PluginSpecification) {
	declared := []struct {
		kind    string
		entries map[string]string
	}{
		{"agent", spec.Agents},
		{"hook", spec.Hooks},
	}
	for _, d := range declared {
		for _, id := range sortedKeys(d.entries) {
			rel := d.entries[id]
			if rel == "" {
				continue
			}
			if !v.repo.Exists(joinPluginPath(plugin.Dir, rel)) {
				r.warnf("%s %s is declared as %s but the file does not exist", d.kind, id, rel)
			}
		}
	}
}

func (v *Validator) validateMCP(r *report, spec *domain.PluginSpecification) {
	for _, name := range spec.MCPServerNames() {
		server := spec.MCP[name]

		switch {
		case server.CommandMalformed:
			r.errorf("mcp.%s: command must be a string", name)
		case strings.TrimSpace(server.Command) == "":
			r.errorf("mcp.%s: command is required", name)
		}

		if server.ArgsMalformed {
			r.errorf("mcp.%s: args must be a list", name)
		}

		switch {
		case server.TimeoutMalformed:
			r.errorf("mcp.%s: timeout must be a number", name)
		case server.Timeout == nil:
		case *server.Timeout < MinMCPTimeout:
			r.errorf("mcp.%s: timeout must be >= %dms", name, MinMCPTimeout)
		case *server.Timeout > WarnMCPTimeout:
			r.warnf("mcp.%s: timeout of %dms exceeds 1 hour", name, *server.Timeout)
		}
	}
}

// validatePaths detects files that disappeared between load and validation
func (v *Validator) validatePaths(r *report, plugin *domain.LoadedPlugin) {
	for _, path := range plugin.Paths {
		if !v.repo.Exists(path) {
			r.errorf("path no longer exists: %s", path)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
