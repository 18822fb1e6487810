// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/vrcpipe/vrcpipe/internal/xdg"
)

// config holds the settings shared by all subcommands. Values come from
// the config file first, then command-line flags on top.
type config struct {
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	APIURL      string `koanf:"api-url"`
	PipelineURL string `koanf:"pipeline-url"`
	LogFormat   string `koanf:"log-format"`
	MetricsAddr string `koanf:"metrics-addr"`
}

// Validate checks that the configuration is usable.
func (cfg *config) Validate() error {
	if cfg.Username == "" {
		return fmt.Errorf("username is required (flag or config file)")
	}
	if cfg.Password == "" {
		return fmt.Errorf("password is required (flag or config file)")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	return nil
}

const defaultLogFormat = "text"

// addCommonFlags registers the flags every subcommand shares. Flag
// defaults double as config defaults: posflag merges unchanged flags too.
func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("username", "", "account username")
	flags.String("password", "", "account password")
	flags.String("api-url", "", "API base URL (default: production)")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
}

// loadConfig merges the YAML config file (if present) with the given
// flag set. An explicit --config path must exist; the default XDG path
// is optional.
func loadConfig(flags *pflag.FlagSet) (*config, error) {
	k := koanf.New(".")

	path := configFile
	explicit := path != ""
	if path == "" {
		path = filepath.Join(xdg.ConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to merge flags: %w", err)
	}

	cfg := &config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
