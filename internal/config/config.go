package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World      WorldConfig      `toml:"world"`
	Pool       PoolConfig       `toml:"pool"`
	Magnet     MagnetConfig     `toml:"magnet"`
	Simulation SimulationConfig `toml:"simulation"`
	Logging    LoggingConfig    `toml:"logging"`
}

// WorldConfig drives segment residency. UnloadRadius must be >= LoadRadius;
// the gap is hysteresis so a reference point sitting on a cell boundary does
// not thrash segments.
type WorldConfig struct {
	SegmentSize  float64 `toml:"segment_size"`
	LoadRadius   int     `toml:"load_radius"`
	UnloadRadius int     `toml:"unload_radius"`
	InitialBatch int     `toml:"initial_batch"` // segments loaded per progress-callback step
	Seed         int64   `toml:"seed"`
}

type PoolConfig struct {
	Capacity int `toml:"capacity"` // per category
}

type MagnetConfig struct {
	Radius          float64 `toml:"radius"`
	MinDistance     float64 `toml:"min_distance"`
	CollectDistance float64 `toml:"collect_distance"`
	Gain            float64 `toml:"gain"` // pull speed at zero distance, units/sec
}

type SimulationConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	RunSpeed float64       `toml:"run_speed"` // reference-point forward speed, units/sec
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.World.SegmentSize <= 0 {
		return fmt.Errorf("world.segment_size must be positive, got %v", c.World.SegmentSize)
	}
	if c.World.LoadRadius < 1 {
		return fmt.Errorf("world.load_radius must be >= 1, got %d", c.World.LoadRadius)
	}
	if c.World.UnloadRadius < c.World.LoadRadius {
		return fmt.Errorf("world.unload_radius (%d) must be >= world.load_radius (%d)",
			c.World.UnloadRadius, c.World.LoadRadius)
	}
	if c.World.InitialBatch < 1 {
		return fmt.Errorf("world.initial_batch must be >= 1, got %d", c.World.InitialBatch)
	}
	if c.Pool.Capacity < 1 {
		return fmt.Errorf("pool.capacity must be >= 1, got %d", c.Pool.Capacity)
	}
	if c.Magnet.MinDistance >= c.Magnet.Radius {
		return fmt.Errorf("magnet.min_distance (%v) must be below magnet.radius (%v)",
			c.Magnet.MinDistance, c.Magnet.Radius)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			SegmentSize:  48,
			LoadRadius:   2,
			UnloadRadius: 3,
			InitialBatch: 6,
			Seed:         1,
		},
		Pool: PoolConfig{
			Capacity: 64,
		},
		Magnet: MagnetConfig{
			Radius:          12,
			MinDistance:     1.5,
			CollectDistance: 2.5,
			Gain:            40,
		},
		Simulation: SimulationConfig{
			TickRate: 16 * time.Millisecond,
			RunSpeed: 14,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Default returns the built-in configuration, used when no config file is
// given and by tests.
func Default() *Config {
	return defaults()
}
