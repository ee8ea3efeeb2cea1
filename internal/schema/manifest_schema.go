package schema

// PackageSchema is the JSON Schema every generated package.json must satisfy
const PackageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "version"],
  "properties": {
    "name": {
      "type": "string",
      "pattern": "^[a-z0-9-]+$"
    },
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+(-[0-9A-Za-z.-]+)?$"
    },
    "description": {"type": "string"},
    "author": {"type": "string"},
    "license": {"type": "string"},
    "homepage": {"type": "string"},
    "main": {"type": "string", "minLength": 1},
    "keywords": {
      "type": "array",
      "items": {"type": "string"}
    },
    "engines": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

// ExtensionSchema adds the fields an editor marketplace requires on top of a
// package.json
const ExtensionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "displayName", "version", "publisher", "main", "engines", "activationEvents"],
  "properties": {
    "name": {
      "type": "string",
      "pattern": "^[a-z0-9-]+$"
    },
    "displayName": {"type": "string", "minLength": 1},
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+(-[0-9A-Za-z.-]+)?$"
    },
    "publisher": {"type": "string", "minLength": 1},
    "main": {"type": "string", "minLength": 1},
    "engines": {
      "type": "object",
      "required": ["vscode"],
      "properties": {
        "vscode": {"type": "string", "minLength": 1}
      }
    },
    "activationEvents": {
      "type": "array",
      "items": {"type": "string"}
    },
    "contributes": {"type": "object"}
  }
}`

// PluginManifestSchema describes the marketplace manifest of hook-driven
// assistants
const PluginManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "version", "description", "author"],
  "properties": {
    "name": {
      "type": "string",
      "pattern": "^[a-z0-9-]+$"
    },
    "version": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "author": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string", "minLength": 1}
      }
    },
    "homepage": {"type": "string"},
    "license": {"type": "string"},
    "keywords": {
      "type": "array",
      "items": {"type": "string"}
    },
    "hooks": {"type": "string"},
    "mcpServers": {"type": "string"}
  }
}`

// MCPConfigSchema checks the mcpServers document shared by several platforms
const MCPConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["mcpServers"],
  "properties": {
    "mcpServers": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["command"],
        "properties": {
          "command": {"type": "string", "minLength": 1},
          "args": {
            "type": "array",
            "items": {"type": "string"}
          },
          "timeout": {"type": "integer", "minimum": 1000},
          "env": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          }
        }
      }
    }
  }
}`
