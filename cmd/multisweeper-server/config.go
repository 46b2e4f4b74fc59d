package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/lguibr/multisweeper/config"
	"github.com/lguibr/multisweeper/game"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the flag-bound values that get translated into a
// config.Config once parsing and environment binding have both run.
type Config struct {
	bind        string
	port        int
	turnTimeout time.Duration
	seed        int64
	difficulty  string
	verbose     bool
}

func (c *Config) toDomainConfig() (config.Config, error) {
	difficulty, err := game.ParseDifficulty(c.difficulty)
	if err != nil {
		return config.Config{}, err
	}
	cfg := config.Config{
		ListenAddress: fmt.Sprintf("%s:%d", c.bind, c.port),
		TurnTimeout:   c.turnTimeout,
		Seed:          c.seed,
		Difficulty:    difficulty,
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MULTISWEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "multisweeper-server",
		Short:         "The WebSocket lobby and game server for multiplayer minesweeper.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			domainCfg, err := cfg.toDomainConfig()
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), domainCfg, cfg.verbose)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MULTISWEEPER_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MULTISWEEPER_PORT)")
	fs.DurationVar(&cfg.turnTimeout, "turn-timeout", 30*time.Second, "per-turn deadline before the current player times out and is eliminated from the game (env: MULTISWEEPER_TURN_TIMEOUT)")
	fs.Int64Var(&cfg.seed, "seed", 0, "PRNG seed for lobby-code allocation; 0 derives one from wall-clock at startup (env: MULTISWEEPER_SEED)")
	fs.StringVar(&cfg.difficulty, "difficulty", "test", "starting difficulty for new games: test, easy, medium, or hard (env: MULTISWEEPER_DIFFICULTY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MULTISWEEPER_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("multisweeper-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
