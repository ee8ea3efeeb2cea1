// Package loader discovers and parses a plugin directory by convention: the
// specification file at its root plus the agents/, hooks/ and skills/
// subdirectories.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/plugforge/plugforge/internal/domain"
	"github.com/plugforge/plugforge/internal/storage"
)

// AgentExtension is the file extension recognized for agent documents
const AgentExtension = ".md"

// Scanner lists convention directories through a repository
type Scanner struct {
	repo storage.Repository
}

// NewScanner creates a new Scanner reading through repo
func NewScanner(repo storage.Repository) *Scanner {
	return &Scanner{repo: repo}
}

// ScanAgents returns every agents/*.md document. A missing directory yields no assets.
func (s *Scanner) ScanAgents(pluginDir string) ([]domain.Asset, error) {
	return s.scanFiles(filepath.Join(pluginDir, domain.AgentsDir), isAgentFile)
}

// ScanHooks returns every regular, non-hidden file under hooks/
func (s *Scanner) ScanHooks(pluginDir string) ([]domain.Asset, error) {
	return s.scanFiles(filepath.Join(pluginDir, domain.HooksDir), isHookFile)
}

// ScanSkills returns the manifest of every skills/<name>/ directory that has
// one; directories without a manifest are skipped
func (s *Scanner) ScanSkills(pluginDir string) ([]domain.Asset, error) {
	skillsDir := filepath.Join(pluginDir, domain.SkillsDir)
	entries, err := s.repo.ReadDir(skillsDir)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", skillsDir, err)
	}

	var skills []domain.Asset
	for _, entry := range entries {
		if !entry.IsDir || isHidden(entry.Name) {
			continue
		}

		manifestPath := filepath.Join(skillsDir, entry.Name, domain.SkillManifestName)
		if !s.repo.Exists(manifestPath) || s.repo.IsDir(manifestPath) {
			continue
		}

		asset, err := s.readAsset(manifestPath, entry.Name)
		if err != nil {
			return nil, err
		}
		skills = append(skills, asset)
	}
	return skills, nil
}

// scanFiles lists the regular files of dir accepted by match
func (s *Scanner) scanFiles(dir string, match func(name string) bool) ([]domain.Asset, error) {
	entries, err := s.repo.ReadDir(dir)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var assets []domain.Asset
	for _, entry := range entries {
		if entry.IsDir || !match(entry.Name) {
			continue
		}

		asset, err := s.readAsset(filepath.Join(dir, entry.Name), AssetID(entry.Name))
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *Scanner) readAsset(path, id string) (domain.Asset, error) {
	data, err := s.repo.ReadFile(path)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return domain.Asset{
		ID:       id,
		FileName: filepath.Base(path),
		Path:     path,
		Content:  string(data),
		Size:     int64(len(data)),
	}, nil
}

// AssetID derives an asset id from its file name by dropping the extension
func AssetID(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

func isAgentFile(name string) bool {
	return !isHidden(name) && strings.EqualFold(filepath.Ext(name), AgentExtension)
}

func isHookFile(name string) bool {
	return !isHidden(name) && slices.Contains(domain.HookExtensions, strings.ToLower(filepath.Ext(name)))
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
