package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoiseParams configures the fractal terrain noise for a level.
type NoiseParams struct {
	Octaves     int     `yaml:"octaves"`
	Frequency   float64 `yaml:"frequency"`
	Amplitude   float64 `yaml:"amplitude"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
}

// PlacementRule describes one content kind and how densely a segment is
// seeded with it. Density is the expected instance count per segment.
type PlacementRule struct {
	Kind          string   `yaml:"kind"`
	Density       float64  `yaml:"density"`
	MinScale      float64  `yaml:"min_scale"`
	MaxScale      float64  `yaml:"max_scale"`
	Score         int      `yaml:"score"`
	Collidable    bool     `yaml:"collidable"`
	Hazard        bool     `yaml:"hazard"`
	Magnetic      bool     `yaml:"magnetic"`
	TerrainLocked bool     `yaml:"terrain_locked"`
	AlignOffset   float64  `yaml:"align_offset"`
	SpinRate      float64  `yaml:"spin_rate"` // rad/sec yaw spin, 0 = static
	Parts         []string `yaml:"parts"`     // composite sub-part names, empty = simple
}

// EnemyTemplate is one entry of the level's enemy roster. Placement kinds
// matching a roster entry are spawned through the enemy subsystem instead of
// the pool.
type EnemyTemplate struct {
	Kind   string  `yaml:"kind"`
	Health int     `yaml:"health"`
	Speed  float64 `yaml:"speed"`
}

// LevelConfig is everything segment generation needs for one level.
type LevelConfig struct {
	Name       string          `yaml:"name"`
	Biome      string          `yaml:"biome"`
	Seed       int64           `yaml:"seed"`
	Noise      NoiseParams     `yaml:"noise"`
	Placements []PlacementRule `yaml:"placements"`
	Roster     []EnemyTemplate `yaml:"roster"`
}

// Rule returns the placement rule for a kind, or nil.
func (l *LevelConfig) Rule(kind string) *PlacementRule {
	for i := range l.Placements {
		if l.Placements[i].Kind == kind {
			return &l.Placements[i]
		}
	}
	return nil
}

// RosterHas reports whether a kind is enemy-roster-managed in this level.
func (l *LevelConfig) RosterHas(kind string) bool {
	for i := range l.Roster {
		if l.Roster[i].Kind == kind {
			return true
		}
	}
	return false
}

// RosterTemplate returns the roster entry for a kind, or nil.
func (l *LevelConfig) RosterTemplate(kind string) *EnemyTemplate {
	for i := range l.Roster {
		if l.Roster[i].Kind == kind {
			return &l.Roster[i]
		}
	}
	return nil
}

type levelFile struct {
	Level LevelConfig `yaml:"level"`
}

// LoadLevel reads a single level YAML file.
func LoadLevel(path string) (*LevelConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	var f levelFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse level %s: %w", path, err)
	}
	lvl := f.Level
	if lvl.Name == "" {
		return nil, fmt.Errorf("level %s: missing name", path)
	}
	if err := validateLevel(&lvl); err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return &lvl, nil
}

func validateLevel(l *LevelConfig) error {
	if len(l.Placements) == 0 {
		return fmt.Errorf("no placement rules")
	}
	seen := make(map[string]bool, len(l.Placements))
	for i := range l.Placements {
		r := &l.Placements[i]
		if r.Kind == "" {
			return fmt.Errorf("placement rule %d: missing kind", i)
		}
		if seen[r.Kind] {
			return fmt.Errorf("duplicate placement rule for kind %q", r.Kind)
		}
		seen[r.Kind] = true
		if r.Density < 0 {
			return fmt.Errorf("kind %q: negative density", r.Kind)
		}
		if r.MinScale == 0 && r.MaxScale == 0 {
			r.MinScale, r.MaxScale = 1, 1
		}
		if r.MaxScale < r.MinScale {
			return fmt.Errorf("kind %q: max_scale below min_scale", r.Kind)
		}
	}
	if l.Noise.Octaves <= 0 {
		l.Noise = NoiseParams{Octaves: 4, Frequency: 0.015, Amplitude: 6, Persistence: 0.5, Lacunarity: 2}
	}
	return nil
}

// LevelTable holds all loaded levels indexed by name.
type LevelTable struct {
	levels map[string]*LevelConfig
	order  []string
}

// LoadLevelTable reads every *.yaml level file in a directory.
func LoadLevelTable(dir string) (*LevelTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read level dir %s: %w", dir, err)
	}
	t := &LevelTable{levels: make(map[string]*LevelConfig)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		lvl, err := LoadLevel(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := t.levels[lvl.Name]; dup {
			return nil, fmt.Errorf("duplicate level name %q", lvl.Name)
		}
		t.levels[lvl.Name] = lvl
		t.order = append(t.order, lvl.Name)
	}
	if len(t.levels) == 0 {
		return nil, fmt.Errorf("no levels in %s", dir)
	}
	return t, nil
}

// Get returns a level by name, or nil.
func (t *LevelTable) Get(name string) *LevelConfig {
	return t.levels[name]
}

// First returns the first level in directory order.
func (t *LevelTable) First() *LevelConfig {
	if len(t.order) == 0 {
		return nil
	}
	return t.levels[t.order[0]]
}

func (t *LevelTable) Count() int { return len(t.levels) }
