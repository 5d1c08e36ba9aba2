package config

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wavelink-chat/wavelink-relay/globals"
)

const (
	defaultClientOrigin  = "http://localhost:3000"
	defaultPort          = 4000
	defaultLogLevel      = "INFO"
	defaultStatsInterval = "@every 1m"
)

// Config is the global configuration object which is filled via the
// configuration file, environment (WAVELINK_ prefix) and command-line flags.
type Config struct {
	ClientOrigin  string             `mapstructure:"client_origin"` // allowed origin(s), comma-separated, "*" allows all
	Port          int                `mapstructure:"port"`
	LogLevel      string             `mapstructure:"log_level"`
	MessageFilter string             `mapstructure:"message_filter"` // expr expression gating inbound chat messages
	StatsInterval string             `mapstructure:"stats_interval"` // cron spec of the periodic stats report
	HistoryConfig HistoryConfig      `mapstructure:"history"`
	RoomFilters   []RoomFilterConfig `mapstructure:"room_filter"`
}

// HistoryConfig configures the size of the in-memory recent-message feed
// exposed on the admin API.
type HistoryConfig struct {
	HistorySize int `mapstructure:"history_size"`
}

// A RoomFilterConfig block overrides the global message filter for a single
// conversation room.
type RoomFilterConfig struct {
	Room   string `mapstructure:"room"`
	Filter string `mapstructure:"filter"`
}

// Addr returns the listen address derived from the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowedOrigins splits the configured client origin value into its entries.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.ClientOrigin, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// FilterForRoom returns the admission filter expression applying to the
// given room, falling back to the global message filter.
func (c *Config) FilterForRoom(roomID string) string {
	for _, rf := range c.RoomFilters {
		if rf.Room == roomID {
			return rf.Filter
		}
	}
	return c.MessageFilter
}

func GetFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("configuration", pflag.ContinueOnError)
	flagSet.String("client-origin", "", "allowed client origin(s), comma-separated")
	flagSet.Int("port", 0, "listen port")
	flagSet.String("log-level", "", "log level")
	return flagSet
}

// wordSepNormalizeFunc allows for normalization of the flag names (which use - as a separator)
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	from := "-"
	to := "_"
	name = strings.Replace(name, from, to, -1)
	return pflag.NormalizedName(name)
}

// ReadConfiguration reads and parses the configuration located at configPath,
// which can either point to a single TOML file or to a directory, in which
// case all *.toml files in this directory are concatenated. It returns a
// Config object.
func ReadConfiguration(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	cfg := Config{}
	if flagSet != nil {
		flagSet.SetNormalizeFunc(wordSepNormalizeFunc)
		if err := viper.BindPFlags(flagSet); err != nil {
			globals.AppLogger.Error("could not bind flags (ignored)", "error", err)
		}
	}
	viper.SetDefault("client_origin", defaultClientOrigin)
	viper.SetDefault("port", defaultPort)
	viper.SetDefault("log_level", defaultLogLevel)
	viper.SetDefault("stats_interval", defaultStatsInterval)
	viper.SetEnvPrefix("WAVELINK")
	viper.AutomaticEnv()
	if configPath != "" {
		fi, err := os.Stat(configPath)
		if err != nil {
			return nil, err
		}
		contents := make([]byte, 0)
		files := []string{configPath}
		if fi.IsDir() {
			files, err = filepath.Glob(filepath.Join(configPath, "*.toml"))
			if err != nil {
				return nil, err
			}
		}
		for _, configFile := range files {
			fileContents, err := ioutil.ReadFile(configFile)
			if err != nil {
				return nil, err
			}
			contents = append(contents, fileContents...)
			contents = append(contents, '\n')
		}
		viper.SetConfigType("toml")
		if err := viper.ReadConfig(bytes.NewBuffer(contents)); err != nil {
			globals.AppLogger.Error("could not read config:", "error", err)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		globals.AppLogger.Error("could not unmarshal config:", "error", err)
	}

	globals.AppLogger.Debug("config", "cfg", cfg)
	return &cfg, nil
}
