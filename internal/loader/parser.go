package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/plugforge/plugforge/internal/domain"

	"gopkg.in/yaml.v3"
)

// ParsedSpec is a decoded specification file
type ParsedSpec struct {
	Spec   *domain.PluginSpecification
	Raw    map[string]any
	Format domain.SpecFormat
}

// ParseError describes why a specification file could not be decoded
type ParseError struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
	Line     int    `json:"line,omitempty"`
}

// Parser decodes specification files in JSON and YAML formats
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// FormatForPath picks the specification format from the file extension
func FormatForPath(path string) domain.SpecFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return domain.FormatYAML
	default:
		return domain.FormatJSON
	}
}

// Parse decodes specification content. Both formats end up in a yaml.Node so
// one set of decoding hooks handles them.
func (p *Parser) Parse(data []byte, filePath string) (*ParsedSpec, *ParseError) {
	format := FormatForPath(filePath)

	var node yaml.Node
	switch format {
	case domain.FormatJSON:
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &ParseError{
				FilePath: filePath,
				Error:    fmt.Sprintf("failed to parse JSON: %v", err),
				Line:     jsonErrorLine(data, err),
			}
		}
		if err := node.Encode(raw); err != nil {
			return nil, &ParseError{FilePath: filePath, Error: fmt.Sprintf("failed to convert JSON: %v", err)}
		}
	default:
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, &ParseError{
				FilePath: filePath,
				Error:    fmt.Sprintf("failed to parse YAML: %v", err),
				Line:     extractYAMLErrorLine(err),
			}
		}
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	parsed := &ParsedSpec{
		Spec:   &domain.PluginSpecification{},
		Raw:    map[string]any{},
		Format: format,
	}

	// An empty document is a valid, if useless, specification
	if root.Kind == 0 || (root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null") {
		return parsed, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{
			FilePath: filePath,
			Error:    "specification must be a mapping at the top level",
			Line:     root.Line,
		}
	}

	if err := root.Decode(parsed.Spec); err != nil {
		return nil, &ParseError{
			FilePath: filePath,
			Error:    fmt.Sprintf("invalid specification structure: %v", err),
			Line:     extractYAMLErrorLine(err),
		}
	}
	if err := root.Decode(&parsed.Raw); err != nil {
		return nil, &ParseError{FilePath: filePath, Error: fmt.Sprintf("invalid specification structure: %v", err)}
	}

	return parsed, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// extractYAMLErrorLine pulls the first line number out of a yaml.v3 error
func extractYAMLErrorLine(err error) int {
	if err == nil {
		return 0
	}
	matches := yamlLinePattern.FindStringSubmatch(err.Error())
	if matches == nil {
		return 0
	}
	line, _ := strconv.Atoi(matches[1])
	return line
}

// jsonErrorLine converts a syntax error offset into a 1-based line number
func jsonErrorLine(data []byte, err error) int {
	syntaxErr, ok := err.(*json.SyntaxError)
	if !ok {
		return 0
	}
	offset := min(int(syntaxErr.Offset), len(data))
	return strings.Count(string(data[:offset]), "\n") + 1
}
