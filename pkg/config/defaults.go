package config

// Default configuration values.
const (
	DefaultMaxRank           = 32
	DefaultNonterminalPrefix = "N"
	DefaultNumCellBits       = 2
	DefaultMemoWindow        = 256
)
