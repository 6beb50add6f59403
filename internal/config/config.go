// Package config reads the startup configuration: config.yaml first, then
// .env and MATCHBOT_* environment variables, then command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Martig3/valorant-matchbot/internal/discord"
	"github.com/Martig3/valorant-matchbot/internal/registry"
	"github.com/Martig3/valorant-matchbot/internal/reminder"
	"github.com/Martig3/valorant-matchbot/internal/storage"
)

const EnvPrefix = "MATCHBOT_"

type HTTP struct {
	// Addr is the observer API listen address. Empty disables it.
	Addr string `yaml:"addr" env:"ADDR"`
}

type Log struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

type Config struct {
	Discord      discord.Config  `yaml:"discord" envPrefix:"DISCORD_"`
	PostSetupMsg string          `yaml:"post_setup_msg" env:"POST_SETUP_MSG"`
	MapPoolLimit int             `yaml:"map_pool_limit" env:"MAP_POOL_LIMIT"`
	Storage      storage.Config  `yaml:"storage" envPrefix:"STORAGE_"`
	HTTP         HTTP            `yaml:"http" envPrefix:"HTTP_"`
	Log          Log             `yaml:"log" envPrefix:"LOG_"`
	Reminder     reminder.Config `yaml:"reminder" envPrefix:"REMINDER_"`
}

func Default() Config {
	return Config{
		MapPoolLimit: registry.DefaultLimit,
		Storage:      storage.Config{Driver: storage.DriverDir, Dir: "data"},
		HTTP:         HTTP{Addr: ":8080"},
		Log:          Log{Level: "info"},
		Reminder:     reminder.Config{Timezone: "UTC"},
	}
}

// Load parses args (without the program name) and builds the config.
// pflag.ErrHelp is returned unchanged when help was requested.
func Load(args []string) (Config, error) {
	flags := pflag.NewFlagSet("matchbot", pflag.ContinueOnError)
	path := flags.StringP("config", "c", "config.yaml", "path to the YAML config file")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	addr := flags.String("addr", "", "observer API listen address, overrides http.addr")
	level := flags.String("log-level", "", "log level, overrides log.level")
	dev := flags.Bool("dev", false, "human readable development logging")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := readYAML(*path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("config") {
			return Config{}, err
		}
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if flags.Changed("addr") {
		cfg.HTTP.Addr = *addr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *level
	}
	if flags.Changed("dev") {
		cfg.Log.Development = *dev
	}
	return cfg, cfg.Validate()
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var err error
	if c.Discord.Token == "" {
		err = multierr.Append(err, errors.New("discord.token is required"))
	}
	if c.MapPoolLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("map_pool_limit must not be negative, got %d", c.MapPoolLimit))
	}
	if c.Reminder.Enabled() && c.Discord.ChannelID == "" {
		err = multierr.Append(err, errors.New("reminder.at needs discord.channel_id to announce in"))
	}
	return err
}
