package placement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultWeight            = 2
	defaultStrongThreshold   = 80
	defaultModerateThreshold = 60
)

// Markers are the substrings in an option ID that signal affinity to a counter.
type Markers struct {
	AA string `yaml:"aa" json:"aa"`
	AI string `yaml:"ai" json:"ai"`
	HL string `yaml:"hl" json:"hl"`
	SL string `yaml:"sl" json:"sl"`
}

// Thresholds are the confidence cut-offs for the advice tiers.
type Thresholds struct {
	Strong   int `yaml:"strong" json:"strong"`
	Moderate int `yaml:"moderate" json:"moderate"`
}

// Policy holds the scoring weights and thresholds.
type Policy struct {
	Weight     int        `yaml:"weight" json:"weight"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Markers    Markers    `yaml:"markers" json:"markers"`
}

// DefaultPolicy returns the standard scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Weight: defaultWeight,
		Thresholds: Thresholds{
			Strong:   defaultStrongThreshold,
			Moderate: defaultModerateThreshold,
		},
		Markers: Markers{
			AA: "aa_",
			AI: "ai_",
			HL: "_hl",
			SL: "_sl",
		},
	}
}

// Validate checks that the policy can produce sane scores.
func (p Policy) Validate() error {
	if p.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %d", p.Weight)
	}
	if p.Markers.AA == "" || p.Markers.AI == "" || p.Markers.HL == "" || p.Markers.SL == "" {
		return fmt.Errorf("all four markers are required")
	}
	if p.Thresholds.Strong < 0 || p.Thresholds.Strong > 100 {
		return fmt.Errorf("strong threshold must be within 0..100, got %d", p.Thresholds.Strong)
	}
	if p.Thresholds.Moderate < 0 || p.Thresholds.Moderate > p.Thresholds.Strong {
		return fmt.Errorf("moderate threshold must be within 0..%d, got %d", p.Thresholds.Strong, p.Thresholds.Moderate)
	}
	return nil
}

// LoadPolicy reads a YAML policy file over the defaults.
// Fields left out of the file keep their default values. An empty path
// returns DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parsing policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}
