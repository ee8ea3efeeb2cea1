package adapter

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// Generate writes one platform's files under outputDir. Generic files are
// merged beneath the adapter's own entries, every non-nil entry is written in
// sorted path order, and the written relative paths are returned together with
// the generic paths the adapter replaced.
func Generate(a Adapter, repo storage.Repository, spec *domain.PluginSpecification, sourceDir, outputDir string) ([]string, []string, error) {
	if err := repo.MkdirAll(outputDir); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	files, err := a.CreateFileStructure(spec, sourceDir)
	if err != nil {
		return nil, nil, err
	}

	merged := GenericFiles(spec)
	var overridden []string
	for rel, content := range files {
		if _, exists := merged[rel]; exists {
			overridden = append(overridden, rel)
		}
		merged[rel] = content
	}
	slices.Sort(overridden)

	written := merged.Paths()
	for _, rel := range written {
		target, err := outputPath(outputDir, rel)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.WriteFile(target, []byte(*merged[rel])); err != nil {
			return nil, nil, fmt.Errorf("failed to write %s: %w", rel, err)
		}
	}

	return written, overridden, nil
}

// outputPath joins rel under outputDir and rejects paths that escape it
func outputPath(outputDir, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.NewAppError(domain.ErrGenerationFailed,
			fmt.Sprintf("output path %q escapes the platform directory", rel), nil)
	}
	return filepath.Join(outputDir, clean), nil
}
