package domain

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gopkg.in/yaml.v3"
)

// PluginSpecification is the canonical description of one plugin. It is the
// single source of truth every platform adapter reads from and must never be
// modified once loaded; use Clone for derived views.
type PluginSpecification struct {
	Name        string               `json:"name" yaml:"name" jsonschema:"pattern=^[a-z0-9-]+$"`
	Version     string               `json:"version" yaml:"version"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string               `json:"author" yaml:"author"`
	License     string               `json:"license" yaml:"license" jsonschema:"enum=MIT,enum=Apache-2.0,enum=GPL-3.0,enum=ISC,enum=BSD-3-Clause,enum=BSD-2-Clause"`
	Homepage    string               `json:"homepage,omitempty" yaml:"homepage,omitempty" jsonschema:"format=uri"`
	Engines     map[string]string    `json:"engines,omitempty" yaml:"engines,omitempty"`
	Agents      map[string]string    `json:"agents,omitempty" yaml:"agents,omitempty"`
	Hooks       map[string]string    `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	MCP         map[string]MCPServer `json:"mcp,omitempty" yaml:"mcp,omitempty"`
	Features    []string             `json:"features,omitempty" yaml:"features,omitempty"`
	Keywords    []string             `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// MCPServer describes an external tool server the host platform launches.
// Shape problems found while decoding are recorded instead of failing the
// whole specification so validation can report every one of them.
type MCPServer struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Timeout *int64            `json:"timeout,omitempty" yaml:"timeout,omitempty" jsonschema:"minimum=1000"` // milliseconds
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	CommandMalformed bool `json:"-" yaml:"-"`
	ArgsMalformed    bool `json:"-" yaml:"-"`
	TimeoutMalformed bool `json:"-" yaml:"-"`
}

// UnmarshalYAML decodes a server entry while tolerating wrongly shaped fields
func (m *MCPServer) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: mcp server must be a mapping", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		node := value.Content[i+1]

		switch key {
		case "command":
			if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
				m.CommandMalformed = true
				continue
			}
			m.Command = node.Value
		case "args":
			var args []string
			if node.Kind != yaml.SequenceNode || node.Decode(&args) != nil {
				m.ArgsMalformed = true
				continue
			}
			m.Args = args
		case "timeout":
			tag := node.ShortTag()
			if node.Kind != yaml.ScalarNode || (tag != "!!int" && tag != "!!float") {
				m.TimeoutMalformed = true
				continue
			}
			var ms float64
			if err := node.Decode(&ms); err != nil {
				m.TimeoutMalformed = true
				continue
			}
			timeout := clampMillis(ms)
			m.Timeout = &timeout
		case "env":
			if err := node.Decode(&m.Env); err != nil {
				return fmt.Errorf("line %d: mcp env must be a string mapping: %w", node.Line, err)
			}
		}
	}
	return nil
}

// clampMillis converts a decoded timeout to int64, saturating values outside
// its range instead of wrapping
func clampMillis(ms float64) int64 {
	switch {
	case ms >= math.MaxInt64:
		return math.MaxInt64
	case ms <= math.MinInt64:
		return math.MinInt64
	}
	return int64(ms)
}

// Clone returns a deep copy of the specification
func (s *PluginSpecification) Clone() *PluginSpecification {
	if s == nil {
		return nil
	}
	c := *s
	c.Engines = maps.Clone(s.Engines)
	c.Agents = maps.Clone(s.Agents)
	c.Hooks = maps.Clone(s.Hooks)
	c.Features = slices.Clone(s.Features)
	c.Keywords = slices.Clone(s.Keywords)
	if s.MCP != nil {
		c.MCP = make(map[string]MCPServer, len(s.MCP))
		for name, server := range s.MCP {
			c.MCP[name] = server.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the server entry
func (m MCPServer) Clone() MCPServer {
	c := m
	c.Args = slices.Clone(m.Args)
	c.Env = maps.Clone(m.Env)
	if m.Timeout != nil {
		t := *m.Timeout
		c.Timeout = &t
	}
	return c
}

// MCPServerNames returns server names in sorted order
func (s *PluginSpecification) MCPServerNames() []string {
	return slices.Sorted(maps.Keys(s.MCP))
}

// HasFeature reports whether the feature tag is declared
func (s *PluginSpecification) HasFeature(feature string) bool {
	return slices.Contains(s.Features, feature)
}
