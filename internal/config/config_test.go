package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := `
server:
  url: https://damkar.example.go.id
logLevel: debug
session:
  token: abc123
viewport:
  width: 400
  height: 500
map:
  centerLat: -6.9
  centerLng: 107.6
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rawan.yaml"), []byte(cfg), 0644))

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://damkar.example.go.id", c.Server.URL)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "abc123", c.Session.Token)
	assert.Equal(t, 400.0, c.Viewport.Width)
	assert.Equal(t, 500.0, c.Viewport.Height)
	assert.Equal(t, -6.9, c.Center.Lat)
	assert.Equal(t, 107.6, c.Center.Lng)

	p := c.Projector()
	assert.Equal(t, -6.9, p.Center.Lat())
	assert.Equal(t, 107.6, p.Center.Lon())
}

func TestLoad_DefaultValues(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8086", c.Server.URL)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 800.0, c.Viewport.Width)
	assert.Equal(t, 600.0, c.Viewport.Height)
	assert.Equal(t, -6.5714, c.Center.Lat)
	assert.Equal(t, 107.7636, c.Center.Lng)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RAWAN_SERVER_URL", "http://10.0.0.5:8086")
	t.Setenv("RAWAN_SESSION_TOKEN", "from-env")

	c, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8086", c.Server.URL)
	assert.Equal(t, "from-env", c.Session.Token)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rawan.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSessionProvider(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")

	c := &Config{Session: Session{TokenFile: tokenPath}}
	sp := c.SessionProvider()

	tok, err := sp.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok, "missing token file means no session")

	require.NoError(t, os.WriteFile(tokenPath, []byte("  refreshed\n"), 0600))
	tok, err = sp.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok)

	c.Session.Token = "inline"
	assert.Equal(t, rawanclient.StaticToken("inline"), c.SessionProvider())
}
