package profile

import (
	"fmt"
	"math"
	"strings"
	"time"

	"quorum/internal/signal"
)

const weightSumTolerance = 1e-6

// Entry binds one source id to its weight and criticality within a profile.
type Entry struct {
	SourceID    string             `yaml:"id"`
	Weight      float64            `yaml:"weight"`
	Criticality signal.Criticality `yaml:"criticality"`
}

// Profile is one named weight table. Weights must sum to 1.0 within 1e-6;
// this is checked once at load, never per request.
type Profile struct {
	Name    string  `yaml:"-"`
	Default bool    `yaml:"default"`
	Sources []Entry `yaml:"sources"`
}

func (p *Profile) normalize() {
	for i := range p.Sources {
		e := &p.Sources[i]
		e.SourceID = strings.ToLower(strings.TrimSpace(e.SourceID))
		if e.Criticality == "" {
			e.Criticality = signal.Optional
		}
	}
}

func (p *Profile) validate() error {
	if len(p.Sources) == 0 {
		return fmt.Errorf("profile %s: no sources", p.Name)
	}
	sum := 0.0
	seen := make(map[string]bool, len(p.Sources))
	hasCritical := false
	for _, e := range p.Sources {
		if e.SourceID == "" {
			return fmt.Errorf("profile %s: source id cannot be empty", p.Name)
		}
		if seen[e.SourceID] {
			return fmt.Errorf("profile %s: duplicate source %s", p.Name, e.SourceID)
		}
		seen[e.SourceID] = true
		if e.Weight < 0 {
			return fmt.Errorf("profile %s: source %s has negative weight %v", p.Name, e.SourceID, e.Weight)
		}
		switch e.Criticality {
		case signal.Critical:
			hasCritical = true
		case signal.Optional:
		default:
			return fmt.Errorf("profile %s: source %s has unknown criticality %q", p.Name, e.SourceID, e.Criticality)
		}
		sum += e.Weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("profile %s: weights sum to %.9f, want 1.0±%g", p.Name, sum, weightSumTolerance)
	}
	if !hasCritical {
		return fmt.Errorf("profile %s: at least one critical source required", p.Name)
	}
	return nil
}

// Snapshot is an immutable view of all loaded profiles.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Profiles map[string]Profile
	Default  string
}

// Get resolves a profile by name; the empty name means the default profile.
func (s Snapshot) Get(name string) (Profile, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = s.Default
	}
	p, ok := s.Profiles[name]
	return p, ok
}
