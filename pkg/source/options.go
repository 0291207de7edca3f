package source

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvConfigDirectory names the variable holding the module source directory.
const EnvConfigDirectory = "FOREMAST_CONFIG_DIRECTORY"

// Options controls where sources are looked up.
type Options struct {
	// Dir is the directory searched for the module source. Defaults to the
	// working directory.
	Dir string `env:"FOREMAST_CONFIG_DIRECTORY"`

	// ModuleName is the base name of the module source file.
	ModuleName string `validate:"required,excludesall=/"`

	// ModuleKey is the top-level key holding the configuration mapping.
	ModuleKey string `validate:"required"`

	// Extensions are tried in order after ModuleName.
	Extensions []string `validate:"min=1,dive,oneof=.yaml .yml .toml .json"`

	// Files are the ini candidates, lowest priority first. A leading "~"
	// expands to the user's home directory.
	Files []string `validate:"dive,required"`
}

// DefaultOptions returns the built-in lookup locations.
func DefaultOptions() Options {
	return Options{
		ModuleName: "foremast_config",
		ModuleKey:  "CONFIG",
		Extensions: []string{".yaml", ".yml", ".toml", ".json"},
		Files: []string{
			"/etc/foremast/foremast.cfg",
			"~/.foremast/foremast.cfg",
			"./.foremast/foremast.cfg",
		},
	}
}

var validate = validator.New()

// ResolveOptions fills the zero fields of explicit from the environment and
// then from DefaultOptions, and validates the result. Explicit values win
// over the environment.
func ResolveOptions(explicit Options) (Options, error) {
	opts := explicit

	var fromEnv Options
	if err := env.Parse(&fromEnv); err != nil {
		return Options{}, fmt.Errorf("error getting env configs: %w", err)
	}
	if err := mergo.Merge(&opts, fromEnv); err != nil {
		return Options{}, fmt.Errorf("error merging env options: %w", err)
	}
	if err := mergo.Merge(&opts, DefaultOptions()); err != nil {
		return Options{}, fmt.Errorf("error merging default options: %w", err)
	}

	if opts.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Options{}, fmt.Errorf("resolving working directory: %w", err)
		}
		opts.Dir = wd
	}

	if err := validate.Struct(opts); err != nil {
		return Options{}, fmt.Errorf("invalid source options: %w", err)
	}

	return opts, nil
}
