package adapter

import (
	"fmt"

	"github.com/plugforge/plugforge/internal/domain"
)

// Generic file paths every platform receives unless its adapter replaces them
const (
	LicenseFile      = "LICENSE"
	GitignoreFile    = ".gitignore"
	EditorConfigFile = ".editorconfig"
	WorkflowFile     = ".github/workflows/publish.yml"
)

// GenericFiles returns the files shared by all platforms
func GenericFiles(spec *domain.PluginSpecification) FileMap {
	files := FileMap{}
	files.Set(LicenseFile, licenseText(spec))
	files.Set(GitignoreFile, gitignore)
	files.Set(EditorConfigFile, editorConfig)
	files.Set(WorkflowFile, publishWorkflow)
	return files
}

func licenseText(spec *domain.PluginSpecification) string {
	holder := spec.Author
	if holder == "" {
		holder = spec.Name
	}
	return fmt.Sprintf(`%s License

Copyright (c) %s

This plugin is distributed under the terms of the %s license.
See https://spdx.org/licenses/%s.html for the full text.
`, spec.License, holder, spec.License, spec.License)
}

const gitignore = `node_modules/
dist/
target/
build/
.gradle/
*.log
.DS_Store
`

const editorConfig = `root = true

[*]
charset = utf-8
end_of_line = lf
indent_style = space
indent_size = 2
insert_final_newline = true
trim_trailing_whitespace = true

[*.md]
trim_trailing_whitespace = false
`

const publishWorkflow = `name: publish

on:
  push:
    tags:
      - "v*"

jobs:
  publish:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-node@v4
        with:
          node-version: 20
          registry-url: https://registry.npmjs.org
      - run: npm publish --access public
        env:
          NODE_AUTH_TOKEN: ${{ secrets.NPM_TOKEN }}
`
