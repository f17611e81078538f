package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"neonsnake.io/config"
)

// ---------------------------------------------------------------------------
// Game configuration (configurable via environment / config file / CLI flags)
// ---------------------------------------------------------------------------

type GameConfig struct {
	WorldSize       float64 `json:"worldSize"`
	PelletCount     int     `json:"pelletCount"`
	PelletRadius    float64 `json:"pelletRadius"`
	TickRate        int     `json:"tickRate"`
	SnapshotEvery   int     `json:"snapshotEvery"`
	BaseSpeed       float64 `json:"baseSpeed"`
	BoostSpeed      float64 `json:"boostSpeed"`
	BoostCost       float64 `json:"boostCost"`
	InitialLength   float64 `json:"initialLength"`
	MinLength       float64 `json:"minLength"`
	EatRadius       float64 `json:"eatRadius"`
	CollisionRadius float64 `json:"collisionRadius"`
	HeadExclusion   int     `json:"headExclusion"`
	SelfExclusion   int     `json:"selfExclusion"`
	BotCount        int     `json:"botCount"`
	BotRespawnTicks int     `json:"botRespawnTicks"`
	Seed            int64   `json:"seed"`

	Path           string        `json:"path"`
	MaxConnections int           `json:"maxConnections"`
	SendQueue      int           `json:"sendQueue"`
	WriteTimeout   time.Duration `json:"writeTimeout"`
	ScoreTimeout   time.Duration `json:"scoreTimeout"`
}

func DefaultConfig() GameConfig {
	return GameConfig{
		WorldSize:       4000,
		PelletCount:     600,
		PelletRadius:    4,
		TickRate:        20,
		SnapshotEvery:   1,
		BaseSpeed:       5,
		BoostSpeed:      10,
		BoostCost:       0.25,
		InitialLength:   10,
		MinLength:       10,
		EatRadius:       15,
		CollisionRadius: 15,
		HeadExclusion:   5,
		SelfExclusion:   10,
		BotCount:        0,
		BotRespawnTicks: 60,

		Path:           "/game",
		MaxConnections: 512,
		SendQueue:      64,
		WriteTimeout:   5 * time.Second,
		ScoreTimeout:   2 * time.Second,
	}
}

// ---------------------------------------------------------------------------
// Fixed constants (technical/network, not configurable)
// ---------------------------------------------------------------------------
const (
	MaxNameLength = 16
	DefaultName   = "Player"
	DefaultSkin   = "classic"
	ScorePerUnit  = 10
	StatsEvery    = 30 * time.Second
	LeaderboardN  = 20
	readLimit     = 1024
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
)

// LoadConfigFile overlays the JSON file at path onto cfg.
func LoadConfigFile(path string, cfg *GameConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("engine: read config: %w", err)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("engine: parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SNAKE_* environment variables onto cfg.
func (cfg *GameConfig) ApplyEnv() error {
	var errs []error
	f := func(dst *float64, key string) {
		v, err := config.Float(key, *dst)
		errs = append(errs, err)
		*dst = v
	}
	i := func(dst *int, key string) {
		v, err := config.Int(key, *dst)
		errs = append(errs, err)
		*dst = v
	}
	d := func(dst *time.Duration, key string) {
		v, err := config.Duration(key, *dst)
		errs = append(errs, err)
		*dst = v
	}

	f(&cfg.WorldSize, "SNAKE_WORLD_SIZE")
	i(&cfg.PelletCount, "SNAKE_PELLET_COUNT")
	f(&cfg.PelletRadius, "SNAKE_PELLET_RADIUS")
	i(&cfg.TickRate, "SNAKE_TICK_RATE")
	i(&cfg.SnapshotEvery, "SNAKE_SNAPSHOT_EVERY")
	f(&cfg.BaseSpeed, "SNAKE_BASE_SPEED")
	f(&cfg.BoostSpeed, "SNAKE_BOOST_SPEED")
	f(&cfg.BoostCost, "SNAKE_BOOST_COST")
	f(&cfg.InitialLength, "SNAKE_INITIAL_LENGTH")
	f(&cfg.MinLength, "SNAKE_MIN_LENGTH")
	f(&cfg.EatRadius, "SNAKE_EAT_RADIUS")
	f(&cfg.CollisionRadius, "SNAKE_COLLISION_RADIUS")
	i(&cfg.HeadExclusion, "SNAKE_HEAD_EXCLUSION")
	i(&cfg.SelfExclusion, "SNAKE_SELF_EXCLUSION")
	i(&cfg.BotCount, "SNAKE_BOT_COUNT")
	i(&cfg.BotRespawnTicks, "SNAKE_BOT_RESPAWN_TICKS")
	i(&cfg.MaxConnections, "SNAKE_MAX_CONNECTIONS")
	i(&cfg.SendQueue, "SNAKE_SEND_QUEUE")
	d(&cfg.WriteTimeout, "SNAKE_WRITE_TIMEOUT")
	d(&cfg.ScoreTimeout, "SNAKE_SCORE_TIMEOUT")
	cfg.Path = config.String("SNAKE_PATH", cfg.Path)

	seed, err := config.Int64("SNAKE_SEED", cfg.Seed)
	errs = append(errs, err)
	cfg.Seed = seed

	return errors.Join(errs...)
}

// Validate reports every setting that would make the simulation meaningless.
func (cfg GameConfig) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positive("worldSize", cfg.WorldSize)
	positive("pelletCount", float64(cfg.PelletCount))
	positive("tickRate", float64(cfg.TickRate))
	positive("snapshotEvery", float64(cfg.SnapshotEvery))
	positive("baseSpeed", cfg.BaseSpeed)
	positive("boostSpeed", cfg.BoostSpeed)
	positive("minLength", cfg.MinLength)
	positive("eatRadius", cfg.EatRadius)
	positive("collisionRadius", cfg.CollisionRadius)
	positive("sendQueue", float64(cfg.SendQueue))
	if cfg.BoostCost < 0 {
		errs = append(errs, fmt.Errorf("boostCost must not be negative, got %v", cfg.BoostCost))
	}
	if cfg.InitialLength < cfg.MinLength {
		errs = append(errs, fmt.Errorf("initialLength %v is below minLength %v", cfg.InitialLength, cfg.MinLength))
	}
	if cfg.HeadExclusion < 0 || cfg.SelfExclusion < 1 {
		errs = append(errs, fmt.Errorf("exclusion windows out of range: head=%d self=%d", cfg.HeadExclusion, cfg.SelfExclusion))
	}
	if cfg.BotCount < 0 {
		errs = append(errs, fmt.Errorf("botCount must not be negative, got %d", cfg.BotCount))
	}
	if cfg.Path == "" || cfg.Path[0] != '/' {
		errs = append(errs, fmt.Errorf("path must start with '/', got %q", cfg.Path))
	}
	return errors.Join(errs...)
}

func (cfg GameConfig) tickInterval() time.Duration {
	return time.Second / time.Duration(cfg.TickRate)
}
