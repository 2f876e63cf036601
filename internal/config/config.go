// Package config loads engine configuration (TT size, worker count, target
// depth, and the Q_SEARCH/PV_Search toggles) with Viper, generalizing the
// fixed Difficulty/SearchLimits tables a UCI engine would hard-code into
// something a benchmark harness can vary per run.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every knob the driver and searcher need.
type Config struct {
	// TTSizeMB is the approximate size, in megabytes, of the shared
	// transposition table.
	TTSizeMB int `mapstructure:"tt_size_mb"`
	// Workers is the number of Lazy-SMP searchers run per depth.
	Workers int `mapstructure:"workers"`
	// Depth is the maximum iterative-deepening depth.
	Depth int `mapstructure:"depth"`
	// QSearch enables quiescence at leaves; when false, leaves return the
	// static evaluator's stand-pat value directly.
	QSearch bool `mapstructure:"q_search"`
	// PVSearch selects principal-variation search over plain negamax at
	// the root and in recursion.
	PVSearch bool `mapstructure:"pv_search"`
	// Seed fixes the per-worker PRNG family. Zero is used as a base seed
	// like any other value; nothing derives a fresh seed from it.
	Seed uint64 `mapstructure:"seed"`
}

// defaults mirror a mid-strength single-position benchmark run: a modest
// table, a fixed four workers of Lazy-SMP diversity, and
// both search refinements enabled.
func defaults() Config {
	return Config{
		TTSizeMB: 64,
		Workers:  4,
		Depth:    6,
		QSearch:  true,
		PVSearch: true,
		Seed:     1,
	}
}

// Load reads configuration from (in increasing precedence) built-in
// defaults, a config file named lazysmp.{yaml,toml,json} on the search
// path, LAZYSMP_-prefixed environment variables, and flags already
// registered on fs (Load binds every flag on fs itself; pass
// pflag.CommandLine after parsing to use the global flag set).
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	d := defaults()

	v.SetDefault("tt_size_mb", d.TTSizeMB)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("depth", d.Depth)
	v.SetDefault("q_search", d.QSearch)
	v.SetDefault("pv_search", d.PVSearch)
	v.SetDefault("seed", d.Seed)

	v.SetConfigName("lazysmp")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lazysmp")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LAZYSMP")
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
