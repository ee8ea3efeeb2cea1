package domain

import "time"

// ValidationSummary counts what a validation pass looked at and found
type ValidationSummary struct {
	Agents   int `json:"agents"`
	Hooks    int `json:"hooks"`
	Skills   int `json:"skills"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// ValidationReport is produced fresh by every validation call
type ValidationReport struct {
	Valid    bool              `json:"valid"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Info     []string          `json:"info"`
	Summary  ValidationSummary `json:"summary"`
}

// HealResult lists what a healing pass changed on disk
type HealResult struct {
	Healed   []string `json:"healed"`
	Warnings []string `json:"warnings"`
}

// PlatformResult is the outcome of generating one platform
type PlatformResult struct {
	Platform   string   `json:"platform"`
	Success    bool     `json:"success"`
	Dir        string   `json:"dir"`
	Files      []string `json:"files,omitempty"`
	Overridden []string `json:"overridden,omitempty"` // generic files replaced by adapter entries
	Error      string   `json:"error,omitempty"`
}

// RunReport collects everything one generation run produced
type RunReport struct {
	RunID      string                    `json:"run_id"`
	StartedAt  time.Time                 `json:"started_at"`
	Duration   time.Duration             `json:"duration"`
	OutputDir  string                    `json:"output_dir"`
	Platforms  []string                  `json:"platforms"` // registry order
	Results    map[string]PlatformResult `json:"results"`
	Validation ValidationReport          `json:"validation"`
	Healed     *HealResult               `json:"healed,omitempty"`
}

// Succeeded returns the number of platforms generated without error
func (r *RunReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of platforms whose generation failed
func (r *RunReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}
