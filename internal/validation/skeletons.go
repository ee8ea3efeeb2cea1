package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AgentSkeleton returns a minimal agent document with front-matter
func AgentSkeleton(id string) string {
	return fmt.Sprintf(`---
name: %s
description: %s agent
---

# %s
`, id, id, id)
}

// HookSkeleton returns a minimal hook that allows every operation. The
// interpreter follows the file extension.
func HookSkeleton(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".sh":
		return "#!/bin/sh\n# Stub hook: allows every operation.\necho '{\"decision\":\"allow\"}'\n"
	case ".py":
		return "#!/usr/bin/env python3\n# Stub hook: allows every operation.\nprint('{\"decision\":\"allow\"}')\n"
	default:
		return "#!/usr/bin/env node\n// Stub hook: allows every operation.\nprocess.stdout.write(JSON.stringify({ decision: 'allow' }) + '\\n');\n"
	}
}
