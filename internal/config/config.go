// Package config loads client-side settings for the rawan CLI: which
// server to talk to, where the session token lives, and the map viewport.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

// Config is the resolved client configuration.
type Config struct {
	Server   Server    `mapstructure:"server"`
	LogLevel string    `mapstructure:"logLevel"`
	Session  Session   `mapstructure:"session"`
	Viewport geo.Size  `mapstructure:"viewport"`
	Center   MapCenter `mapstructure:"map"`
}

// Server is the plat-rawan API endpoint.
type Server struct {
	URL string `mapstructure:"url"`
}

// Session locates the bearer token. Token wins over TokenFile.
type Session struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
}

// MapCenter is the point shown in the middle of the viewport.
type MapCenter struct {
	Lat float64 `mapstructure:"centerLat"`
	Lng float64 `mapstructure:"centerLng"`
}

// Load reads rawan.yaml from configDir (or $HOME/.config/rawan when
// configDir is empty) and RAWAN_* environment variables. A missing file is
// not an error.
func Load(configDir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.url", "http://localhost:8086")
	v.SetDefault("logLevel", "info")
	v.SetDefault("session.token", "")
	v.SetDefault("session.tokenFile", "")
	v.SetDefault("viewport.width", 800)
	v.SetDefault("viewport.height", 600)
	v.SetDefault("map.centerLat", -6.5714)
	v.SetDefault("map.centerLng", 107.7636)

	v.SetConfigName("rawan")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "rawan"))
		}
	}

	v.SetEnvPrefix("RAWAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}

// Projector returns the projection centred on the configured map center.
func (c *Config) Projector() geo.Projector {
	return geo.NewProjector(c.Center.Lat, c.Center.Lng)
}

// SessionProvider returns the token source for rawanclient.
func (c *Config) SessionProvider() rawanclient.SessionProvider {
	if c.Session.Token != "" || c.Session.TokenFile == "" {
		return rawanclient.StaticToken(c.Session.Token)
	}
	return TokenFile(c.Session.TokenFile)
}

// TokenFile reads the bearer token from a file on every request.
type TokenFile string

// Token implements rawanclient.SessionProvider. A missing file means no
// session.
func (f TokenFile) Token(ctx context.Context) (string, error) {
	data, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
