// Package config loads shared tool defaults from an optional TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the defaults shared by the fet subcommands. Any field left
// unset in the file keeps its built-in default; command-line flags override
// both.
type Config struct {
	ModelName       string  `toml:"model_name"`
	CacheDir        string  `toml:"cache_dir"`
	MaxLength       int     `toml:"max_length"`
	SampleThreshold int     `toml:"sample_threshold"`
	RareThreshold   int     `toml:"rare_threshold"`
	DevRate         float64 `toml:"dev_rate"`
	DBPath          string  `toml:"db_path"`
	TitleField      string  `toml:"title_field"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ModelName:       "bert-large-cased",
		MaxLength:       128,
		SampleThreshold: 10000,
		RareThreshold:   20,
		DevRate:         0.01,
		TitleField:      "title",
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
