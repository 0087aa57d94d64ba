// Package config loads the client core's runtime configuration: process
// settings from the environment and per-network profiles (contract
// addresses, feed endpoints) from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/rsodre/d20-dojo/pkg/felt"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Profile     string `env:"PROFILE" envDefault:"dev"`
	ProfileFile string `env:"PROFILE_FILE" envDefault:"./profiles.yaml"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Contracts are the deployed contract addresses for one network.
type Contracts struct {
	World    string `yaml:"world"`
	Explorer string `yaml:"explorer"`
	Temple   string `yaml:"temple"`
	Combat   string `yaml:"combat"`
}

// Profile describes one network the client can sync against.
type Profile struct {
	Name       string    `yaml:"name"`
	Namespace  string    `yaml:"namespace"`
	ChainName  string    `yaml:"chain_name"`
	RPCURL     string    `yaml:"rpc_url"`
	ToriiURL   string    `yaml:"torii_url"`
	VRFAddress string    `yaml:"vrf_address"`
	Contracts  Contracts `yaml:"contracts"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads the profile file and canonicalizes every contract
// address so profile addresses compare equal to feed addresses.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(pf.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles in %s", path)
	}

	out := make(map[string]Profile, len(pf.Profiles))
	for _, p := range pf.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile without name in %s", path)
		}
		if err := p.canonicalize(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Name, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

func (p *Profile) canonicalize() error {
	addrs := []*string{
		&p.VRFAddress,
		&p.Contracts.World,
		&p.Contracts.Explorer,
		&p.Contracts.Temple,
		&p.Contracts.Combat,
	}
	for _, a := range addrs {
		canon, err := felt.ParseAddress(*a)
		if err != nil {
			return fmt.Errorf("address %q: %w", *a, err)
		}
		*a = canon
	}
	return nil
}
