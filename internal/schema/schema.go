// Package schema publishes the plugin specification as a JSON Schema and
// checks generated manifests against the schemas their platforms expect.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/plugforge/plugforge/internal/domain"
)

// Kind names a manifest schema
type Kind string

const (
	KindPackage        Kind = "package"
	KindExtension      Kind = "extension"
	KindPluginManifest Kind = "plugin-manifest"
	KindMCPConfig      Kind = "mcp-config"
)

// SpecSchemaID is the $id of the reflected specification schema
const SpecSchemaID = "https://plugforge.dev/schemas/plugin.schema.json"

var sources = map[Kind]string{
	KindPackage:        PackageSchema,
	KindExtension:      ExtensionSchema,
	KindPluginManifest: PluginManifestSchema,
	KindMCPConfig:      MCPConfigSchema,
}

var (
	compileOnce sync.Once
	compiled    map[Kind]*gojsonschema.Schema
	compileErr  error
)

func compile() {
	compiled = make(map[Kind]*gojsonschema.Schema, len(sources))
	for kind, source := range sources {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			compileErr = fmt.Errorf("failed to compile %s schema: %w", kind, err)
			return
		}
		compiled[kind] = s
	}
}

// ValidateManifest checks a generated JSON document against the schema of its
// kind. All violations are reported in one MANIFEST_INVALID error.
func ValidateManifest(kind Kind, data []byte) error {
	compileOnce.Do(compile)
	if compileErr != nil {
		return compileErr
	}

	s, ok := compiled[kind]
	if !ok {
		return fmt.Errorf("unknown manifest kind: %s", kind)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.NewAppErrorWithCause(domain.ErrManifestInvalid,
			fmt.Sprintf("%s manifest is not valid JSON", kind), err, nil)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return domain.NewAppError(domain.ErrManifestInvalid,
		fmt.Sprintf("%s manifest failed schema validation: %s", kind, strings.Join(violations, "; ")),
		violations)
}

// SpecSchema reflects the plugin specification into a JSON Schema
func SpecSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := reflector.Reflect(&domain.PluginSpecification{})
	s.ID = SpecSchemaID
	s.Title = "Plugin specification"
	s.Description = "Canonical description of one plugin: identity, agents, hooks and MCP servers."
	return s
}

// SpecSchemaJSON returns SpecSchema as indented JSON with a trailing newline
func SpecSchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(SpecSchema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
