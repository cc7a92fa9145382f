package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Defaults < YAML file < environment < flags.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig holds process-level settings
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	ClientDir     string `yaml:"clientDir"`
	DBPath        string `yaml:"dbPath"`        // empty disables persistence
	PublicURL     string `yaml:"publicURL"`     // base for invite links
	AdminPassword string `yaml:"adminPassword"` // empty disables the admin API
	Debug         bool   `yaml:"debug"`         // enables debug-max-powerups
}

// GameConfig holds every simulation tuning value. Rooms keep a pointer to it.
type GameConfig struct {
	Cols       int     `yaml:"cols"`
	Rows       int     `yaml:"rows"`
	TileSize   float64 `yaml:"tileSize"`
	TickRate   int     `yaml:"tickRate"`
	MaxPlayers int     `yaml:"maxPlayers"`

	StartLives    int     `yaml:"startLives"`
	StartMaxBombs int     `yaml:"startMaxBombs"`
	MaxBombsCap   int     `yaml:"maxBombsCap"`
	StartRange    int     `yaml:"startRange"`
	MaxRange      int     `yaml:"maxRange"`
	BaseSpeed     float64 `yaml:"baseSpeed"` // pixels/s
	PlayerRatio   float64 `yaml:"playerRatio"`

	FuseTime       time.Duration `yaml:"fuseTime"`
	BlastDuration  time.Duration `yaml:"blastDuration"`
	BlastRatio     float64       `yaml:"blastRatio"`
	RespawnDelay   time.Duration `yaml:"respawnDelay"`
	ShieldDuration time.Duration `yaml:"shieldDuration"`
	SpeedDuration  time.Duration `yaml:"speedDuration"`
	SpeedMul       float64       `yaml:"speedMul"`

	SoftWallChance float64 `yaml:"softWallChance"`
	PowerupChance  float64 `yaml:"powerupChance"`

	DeathmatchDelay time.Duration `yaml:"deathmatchDelay"`
	ShrinkInterval  time.Duration `yaml:"shrinkInterval"`

	MaxTickDelta time.Duration `yaml:"maxTickDelta"` // larger gaps are dropped
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":8080",
			PublicURL: "http://localhost:8080",
			Debug:     true,
		},
		Game: DefaultGameConfig(),
	}
}

// DefaultGameConfig returns the stock 13x13 arena tuning
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Cols:       13,
		Rows:       13,
		TileSize:   40,
		TickRate:   60,
		MaxPlayers: 4,

		StartLives:    3,
		StartMaxBombs: 1,
		MaxBombsCap:   5,
		StartRange:    1,
		MaxRange:      10,
		BaseSpeed:     120,
		PlayerRatio:   0.8,

		FuseTime:       3000 * time.Millisecond,
		BlastDuration:  500 * time.Millisecond,
		BlastRatio:     0.8,
		RespawnDelay:   1500 * time.Millisecond,
		ShieldDuration: 5000 * time.Millisecond,
		SpeedDuration:  7000 * time.Millisecond,
		SpeedMul:       1.5,

		SoftWallChance: 0.75,
		PowerupChance:  0.45,

		DeathmatchDelay: 90 * time.Second,
		ShrinkInterval:  500 * time.Millisecond,

		MaxTickDelta: 800 * time.Millisecond,
	}
}

// TickDuration is the wall-clock period of one simulation step
func (gc *GameConfig) TickDuration() time.Duration {
	return time.Second / time.Duration(gc.TickRate)
}

// LoadConfig builds a Config from defaults, an optional YAML file and an optional .env file.
func LoadConfig(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ARENA_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ARENA_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("ARENA_PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("ARENA_ADMIN_PASSWORD"); v != "" {
		c.Server.AdminPassword = v
	}
	if v := os.Getenv("ARENA_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ARENA_DEBUG: %w", err)
		}
		c.Server.Debug = b
	}
	return nil
}

// Validate checks the configuration for values the simulation cannot run with
func (c *Config) Validate() error {
	g := &c.Game
	if g.Cols < 5 || g.Rows < 5 || g.Cols%2 == 0 || g.Rows%2 == 0 {
		return fmt.Errorf("grid must be odd-sized and at least 5x5, got %dx%d", g.Cols, g.Rows)
	}
	if g.TileSize <= 0 {
		return fmt.Errorf("tileSize must be positive, got %v", g.TileSize)
	}
	if g.TickRate <= 0 || g.TickRate > 240 {
		return fmt.Errorf("tickRate must be in 1..240, got %d", g.TickRate)
	}
	if g.MaxPlayers < 1 || g.MaxPlayers > len(defaultColorsBySlot) {
		return fmt.Errorf("maxPlayers must be in 1..%d, got %d", len(defaultColorsBySlot), g.MaxPlayers)
	}
	if g.StartLives < 1 {
		return fmt.Errorf("startLives must be at least 1, got %d", g.StartLives)
	}
	if g.StartMaxBombs < 1 || g.MaxBombsCap < g.StartMaxBombs {
		return fmt.Errorf("bomb count caps out of order: start %d, max %d", g.StartMaxBombs, g.MaxBombsCap)
	}
	if g.StartRange < 0 || g.MaxRange < g.StartRange {
		return fmt.Errorf("range caps out of order: start %d, max %d", g.StartRange, g.MaxRange)
	}
	if g.PlayerRatio <= 0 || g.PlayerRatio > 1 || g.BlastRatio <= 0 || g.BlastRatio > 1 {
		return fmt.Errorf("playerRatio and blastRatio must be in (0,1]")
	}
	if g.FuseTime <= time.Millisecond || g.BlastDuration <= 0 || g.ShrinkInterval <= 0 {
		return fmt.Errorf("fuseTime, blastDuration and shrinkInterval must be positive")
	}
	if g.SoftWallChance < 0 || g.SoftWallChance > 1 || g.PowerupChance < 0 || g.PowerupChance > 1 {
		return fmt.Errorf("probabilities must be in [0,1]")
	}
	if g.MaxTickDelta <= 0 {
		return fmt.Errorf("maxTickDelta must be positive")
	}
	return nil
}
