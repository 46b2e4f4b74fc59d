// Package config holds the server's runtime-tunable settings and the
// validation the ambient cobra/pflag/viper wiring in cmd/ delegates to.
package config

import (
	"fmt"
	"time"

	"github.com/lguibr/multisweeper/game"
)

// Config is the full set of knobs the server accepts: the protocol
// itself has no configurable constants, so this type is the ambient
// configuration surface a real deployment needs around that core.
type Config struct {
	// ListenAddress is the host:port the WebSocket listener binds.
	ListenAddress string

	// TurnTimeout is the per-turn deadline handed to every lobby actor.
	TurnTimeout time.Duration

	// Seed seeds the registry's lobby-code PRNG. Zero means "derive from
	// wall-clock at startup", set explicitly by cmd/ for reproducible
	// runs and tests.
	Seed int64

	// Difficulty is the difficulty every new game starts at.
	Difficulty game.Difficulty
}

// Default returns the baseline configuration: localhost:8080, a
// 30-second turn deadline, and Test difficulty.
func Default() Config {
	return Config{
		ListenAddress: "localhost:8080",
		TurnTimeout:   30 * time.Second,
		Difficulty:    game.Test,
	}
}

// Validate rejects configurations that would make the server meaningless
// to start.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("config: turn timeout must be positive, got %s", c.TurnTimeout)
	}
	return nil
}
