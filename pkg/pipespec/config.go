package pipespec

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the TOML run configuration. Parameter names drift between
// projects; the config file externalizes them instead of hard-coding.
type Config struct {
	// Mode is the detection strategy: geometry, tags, or full.
	Mode string `toml:"mode"`
	// Param is the primary attribute parameter name.
	Param string `toml:"param"`
	// Alternates are known alternate display names.
	Alternates []string `toml:"alternates"`
	// SpecTokens and PositionTokens drive the substring heuristic.
	SpecTokens     []string `toml:"spec_tokens"`
	PositionTokens []string `toml:"position_tokens"`
	// SystemTypeParam is the terminal-fallback parameter name.
	SystemTypeParam string `toml:"system_type_param"`
	// IncludeEmptySheets keeps sheets with no values in the report.
	IncludeEmptySheets *bool `toml:"include_empty_sheets"`
}

// LoadConfig reads and parses a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the configuration into run options, validating the
// mode.
func (c Config) Options() (Options, error) {
	opts := DefaultOptions()
	switch c.Mode {
	case "":
	case string(ModeGeometry), string(ModeTags), string(ModeFull):
		opts.Mode = Mode(c.Mode)
	default:
		return Options{}, fmt.Errorf("invalid mode %q (must be geometry, tags, or full)", c.Mode)
	}
	opts.Param = c.Param
	opts.Alternates = c.Alternates
	opts.SpecTokens = c.SpecTokens
	opts.PosTokens = c.PositionTokens
	opts.SystemTypeParam = c.SystemTypeParam
	opts.IncludeEmptySheets = c.IncludeEmptySheets
	return opts, nil
}
