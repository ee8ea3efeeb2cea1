package adapter

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/schema"
)

// ExtensionAdapter is the shared part of IDE extension platforms. It has no
// file layout of its own; concrete platforms embed it and provide
// CreateFileStructure.
type ExtensionAdapter struct {
	Base
}

// Family returns FamilyExtension
func (a *ExtensionAdapter) Family() Family {
	return FamilyExtension
}

// CreateFileStructure always fails; every extension platform defines its own layout
func (a *ExtensionAdapter) CreateFileStructure(*domain.PluginSpecification, string) (FileMap, error) {
	return nil, domain.NewAppError(domain.ErrNotImplemented,
		fmt.Sprintf("platform %s does not define a file structure", a.Name()), nil)
}

// bundleAgents adds the bundled agent documents found at any fallback path
func (a *ExtensionAdapter) bundleAgents(files FileMap, spec *domain.PluginSpecification, sourceDir, dir string) {
	for _, id := range domain.BundledAgents {
		files[path.Join(dir, id+".md")] = a.ReadAgent(spec, sourceDir, id)
	}
}

// displayName turns my-plugin into My Plugin
func displayName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// VSCodeAdapter packages the plugin as a VS Code extension
type VSCodeAdapter struct {
	ExtensionAdapter
}

// NewVSCodeAdapter creates the vscode adapter
func NewVSCodeAdapter(base Base) *VSCodeAdapter {
	return &VSCodeAdapter{ExtensionAdapter{Base: base}}
}

// CreateFileStructure renders package.json, extension.js and bundled agents
func (a *VSCodeAdapter) CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	return a.editorExtension(spec, sourceDir)
}

// editorExtension builds the layout VS Code and its forks share
func (a *ExtensionAdapter) editorExtension(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	files := FileMap{}

	pkg, err := a.PackageJSON(spec, map[string]any{
		"displayName":      displayName(spec.Name),
		"publisher":        spec.Author,
		"main":             "./extension.js",
		"engines":          map[string]string{"vscode": "^1.85.0"},
		"activationEvents": []string{"onStartupFinished"},
		"categories":       []string{"AI", "Chat"},
		"contributes": map[string]any{
			"chatParticipants": []map[string]any{{
				"id":          spec.Name + "." + domain.PrimaryAgentID,
				"name":        domain.PrimaryAgentID,
				"description": spec.Description,
				"isSticky":    true,
			}},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateManifest(schema.KindExtension, []byte(pkg)); err != nil {
		return nil, err
	}
	files.Set(PackageFile, pkg)
	files.Set("extension.js", extensionEntryPoint(spec))

	a.bundleAgents(files, spec, sourceDir, domain.AgentsDir)
	return files, nil
}

func extensionEntryPoint(spec *domain.PluginSpecification) string {
	return fmt.Sprintf(`// %s extension entry point. Generated; edit the plugin sources instead.
const vscode = require('vscode');
const fs = require('fs');
const path = require('path');

function activate(context) {
  const prompt = fs.readFileSync(path.join(context.extensionPath, 'agents', '%s.md'), 'utf8');
  const participant = vscode.chat.createChatParticipant('%s.%s', async (request, _ctx, stream) => {
    stream.markdown(prompt + '\n\n' + request.prompt);
  });
  context.subscriptions.push(participant);
}

function deactivate() {}

module.exports = { activate, deactivate };
`, spec.Name, domain.PrimaryAgentID, spec.Name, domain.PrimaryAgentID)
}

// CursorAdapter is the VS Code layout plus a .cursorrules file
type CursorAdapter struct {
	ExtensionAdapter
}

// NewCursorAdapter creates the cursor adapter
func NewCursorAdapter(base Base) *CursorAdapter {
	return &CursorAdapter{ExtensionAdapter{Base: base}}
}

// CreateFileStructure renders the editor extension and the rules file
func (a *CursorAdapter) CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	files, err := a.editorExtension(spec, sourceDir)
	if err != nil {
		return nil, err
	}
	files[".cursorrules"] = a.ReadAgent(spec, sourceDir, domain.PrimaryAgentID)
	return files, nil
}

// ZedAdapter packages the plugin as a Rust extension exposing its MCP servers
type ZedAdapter struct {
	ExtensionAdapter
}

// NewZedAdapter creates the zed adapter
func NewZedAdapter(base Base) *ZedAdapter {
	return &ZedAdapter{ExtensionAdapter{Base: base}}
}

// zedContextServer is empty; src/lib.rs supplies the command at runtime
type zedContextServer struct{}

type zedManifest struct {
	ID             string                      `toml:"id"`
	Name           string                      `toml:"name"`
	Version        string                      `toml:"version"`
	SchemaVersion  int                         `toml:"schema_version"`
	Authors        []string                    `toml:"authors"`
	Description    string                      `toml:"description"`
	Repository     string                      `toml:"repository,omitempty"`
	ContextServers map[string]zedContextServer `toml:"context_servers,omitempty"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
	License string `toml:"license,omitempty"`
}

type cargoLib struct {
	Path      string   `toml:"path"`
	CrateType []string `toml:"crate-type"`
}

type cargoManifest struct {
	Package      cargoPackage      `toml:"package"`
	Lib          cargoLib          `toml:"lib"`
	Dependencies map[string]string `toml:"dependencies"`
}

// CreateFileStructure renders extension.toml, Cargo.toml, src/lib.rs and agents
func (a *ZedAdapter) CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	files := FileMap{}

	manifest := zedManifest{
		ID:            spec.Name,
		Name:          displayName(spec.Name),
		Version:       spec.Version,
		SchemaVersion: 1,
		Authors:       []string{spec.Author},
		Description:   spec.Description,
		Repository:    spec.Homepage,
	}
	if len(spec.MCP) > 0 {
		manifest.ContextServers = make(map[string]zedContextServer, len(spec.MCP))
		for _, name := range spec.MCPServerNames() {
			manifest.ContextServers[name] = zedContextServer{}
		}
	}
	extensionTOML, err := toml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extension.toml: %w", err)
	}
	files.Set("extension.toml", string(extensionTOML))

	cargo, err := toml.Marshal(cargoManifest{
		Package: cargoPackage{
			Name:    strings.ReplaceAll(spec.Name, "-", "_"),
			Version: spec.Version,
			Edition: "2021",
			License: spec.License,
		},
		Lib:          cargoLib{Path: "src/lib.rs", CrateType: []string{"cdylib"}},
		Dependencies: map[string]string{"zed_extension_api": "0.1.0"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode Cargo.toml: %w", err)
	}
	files.Set("Cargo.toml", string(cargo))
	files.Set("src/lib.rs", zedLibrary(spec))

	a.bundleAgents(files, spec, sourceDir, domain.AgentsDir)
	return files, nil
}

func zedLibrary(spec *domain.PluginSpecification) string {
	var arms strings.Builder
	for _, name := range spec.MCPServerNames() {
		server := spec.MCP[name]
		args := make([]string, len(server.Args))
		for i, arg := range server.Args {
			args[i] = fmt.Sprintf("%q.into()", arg)
		}
		fmt.Fprintf(&arms, "            %q => Ok(zed::Command {\n", name)
		fmt.Fprintf(&arms, "                command: %q.into(),\n", server.Command)
		fmt.Fprintf(&arms, "                args: vec![%s],\n", strings.Join(args, ", "))
		arms.WriteString("                env: Vec::new(),\n")
		arms.WriteString("            }),\n")
	}

	typeName := strings.TrimSuffix(moduleExportName(spec.Name), "Plugin") + "Extension"
	return fmt.Sprintf(`use zed_extension_api::{self as zed, ContextServerId, Project, Result};

struct %[1]s;

impl zed::Extension for %[1]s {
    fn new() -> Self {
        %[1]s
    }

    fn context_server_command(
        &mut self,
        id: &ContextServerId,
        _project: &Project,
    ) -> Result<zed::Command> {
        match id.as_ref() {
%[2]s            other => Err(format!("unknown context server: {other}")),
        }
    }
}

zed::register_extension!(%[1]s);
`, typeName, arms.String())
}

// JetBrainsAdapter packages the plugin as an IntelliJ platform plugin
type JetBrainsAdapter struct {
	ExtensionAdapter
}

// NewJetBrainsAdapter creates the jetbrains adapter
func NewJetBrainsAdapter(base Base) *JetBrainsAdapter {
	return &JetBrainsAdapter{ExtensionAdapter{Base: base}}
}

// JetBrainsDescriptor is the plugin.xml path inside the Gradle project
const JetBrainsDescriptor = "src/main/resources/META-INF/plugin.xml"

type ideaVendor struct {
	URL  string `xml:"url,attr,omitempty"`
	Name string `xml:",chardata"`
}

type ideaDescription struct {
	Text string `xml:",cdata"`
}

type ideaPlugin struct {
	XMLName     xml.Name        `xml:"idea-plugin"`
	ID          string          `xml:"id"`
	Name        string          `xml:"name"`
	Version     string          `xml:"version"`
	Vendor      ideaVendor      `xml:"vendor"`
	Description ideaDescription `xml:"description"`
	Depends     []string        `xml:"depends"`
}

// CreateFileStructure renders build.gradle.kts, plugin.xml and bundled agents
func (a *JetBrainsAdapter) CreateFileStructure(spec *domain.PluginSpecification, sourceDir string) (FileMap, error) {
	files := FileMap{}

	descriptor, err := xml.MarshalIndent(ideaPlugin{
		ID:          "com.plugforge." + spec.Name,
		Name:        displayName(spec.Name),
		Version:     spec.Version,
		Vendor:      ideaVendor{URL: spec.Homepage, Name: spec.Author},
		Description: ideaDescription{Text: spec.Description},
		Depends:     []string{"com.intellij.modules.platform"},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode plugin.xml: %w", err)
	}
	files.Set(JetBrainsDescriptor, xml.Header+string(descriptor)+"\n")
	files.Set("build.gradle.kts", gradleBuild(spec))
	files.Set("settings.gradle.kts", fmt.Sprintf("rootProject.name = %q\n", spec.Name))

	a.bundleAgents(files, spec, sourceDir, "src/main/resources/agents")
	return files, nil
}

func gradleBuild(spec *domain.PluginSpecification) string {
	return fmt.Sprintf(`plugins {
    id("java")
    id("org.jetbrains.kotlin.jvm") version "1.9.24"
    id("org.jetbrains.intellij.platform") version "2.1.0"
}

group = "com.plugforge"
version = %q

repositories {
    mavenCentral()
    intellijPlatform {
        defaultRepositories()
    }
}

dependencies {
    intellijPlatform {
        intellijIdeaCommunity("2024.2")
    }
}

intellijPlatform {
    pluginConfiguration {
        id = %q
        name = %q
        version = %q
    }
}
`, spec.Version, "com.plugforge."+spec.Name, displayName(spec.Name), spec.Version)
}
