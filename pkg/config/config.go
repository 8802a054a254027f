// Package config provides configuration loading and validation for binjs.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidMaxRank     = errors.New("max rank must be positive")
	ErrInvalidCellBits    = errors.New("numCellBits must be in [1,5]")
	ErrInvalidMemoWindow  = errors.New("memo window must be non-negative")
	ErrEmptyGrammarPrefix = errors.New("grammar nonterminal prefix must not be empty")
)

// maxCellBits is the upper bound on numCellBits (spec §4.4: cell count is
// 2^numCellBits - 1, and the cell-selector byte reserves 2 bits).
const maxCellBits = 5

// Config holds all configuration for the binjs encoder and decoder.
type Config struct {
	Grammar GrammarConfig `mapstructure:"grammar"`
	Codec   CodecConfig   `mapstructure:"codec"`
	Memo    MemoConfig    `mapstructure:"memo"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GrammarConfig controls TreeRePair grammar inference.
type GrammarConfig struct {
	// MaxRank bounds the rank of any digram occurrence the engine will
	// consider, capping rule arity.
	MaxRank int `mapstructure:"max_rank"`
	// NonterminalPrefix is validated as non-empty and not otherwise read:
	// the TreeRePair engine names fresh rules "S1", "S2", ... regardless.
	NonterminalPrefix string `mapstructure:"nonterminal_prefix"`
}

// CodecConfig controls the MRU-delta integer codec.
type CodecConfig struct {
	// NumCellBits sizes the MRU window: 2^NumCellBits - 1 cells.
	NumCellBits int `mapstructure:"num_cell_bits"`
}

// MemoConfig controls subtree memoization (MEMO_RECORD/MEMO_REPLAY).
type MemoConfig struct {
	// Window is the recency window size; 0 means unbounded.
	Window int `mapstructure:"window"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".binjs")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath("$HOME")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix("BINJS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("grammar.max_rank", DefaultMaxRank)
	viperCfg.SetDefault("grammar.nonterminal_prefix", DefaultNonterminalPrefix)
	viperCfg.SetDefault("codec.num_cell_bits", DefaultNumCellBits)
	viperCfg.SetDefault("memo.window", DefaultMemoWindow)
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "json")
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.Grammar.MaxRank <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxRank, cfg.Grammar.MaxRank)
	}

	if cfg.Codec.NumCellBits <= 0 || cfg.Codec.NumCellBits > maxCellBits {
		return fmt.Errorf("%w: %d", ErrInvalidCellBits, cfg.Codec.NumCellBits)
	}

	if cfg.Memo.Window < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMemoWindow, cfg.Memo.Window)
	}

	if cfg.Grammar.NonterminalPrefix == "" {
		return ErrEmptyGrammarPrefix
	}

	return nil
}
