package domain

// SpecLoader defines the contract for loading a plugin directory
type SpecLoader interface {
	Load(pluginDir string) (*LoadedPlugin, error)
}

// SpecValidator defines the contract for structural validation
type SpecValidator interface {
	Validate(plugin *LoadedPlugin) ValidationReport
}

// SpecHealer defines the contract for repairing fixable defects on disk
type SpecHealer interface {
	Heal(plugin *LoadedPlugin) (HealResult, error)
}
