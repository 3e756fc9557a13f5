package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-rawan/internal/markers"
	"github.com/joeblew999/plat-rawan/internal/server"
)

type cliFixture struct {
	configDir string
}

func newCLIFixture(t *testing.T, cfg server.Config, token string) cliFixture {
	t.Helper()
	cfg.DataDir = t.TempDir()
	cfg.CenterLat = -6.5714
	cfg.CenterLng = 107.7636
	cfg.Logger = zerolog.Nop()
	srv, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	yaml := fmt.Sprintf("server:\n  url: %s\nlogLevel: disabled\nsession:\n  token: %q\nviewport:\n  width: 800\n  height: 600\n", ts.URL, token)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rawan.yaml"), []byte(yaml), 0644))
	return cliFixture{configDir: dir}
}

// run executes one markers subcommand and returns stdout, stderr.
func (f cliFixture) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newMarkersCmd(streams{in: strings.NewReader(stdin), out: &out, err: &errOut})
	cmd.SetArgs(append(args, "--config-dir", f.configDir))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestMarkersAddListExport(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")

	out, _, err := f.run(t, "", "add", "--name", "Pasar Baru", "--description", "Kabel semrawut", "--lat", "-6.57", "--lng", "107.76")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "Pasar Baru" (1 hazard locations)`)

	out, _, err = f.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pasar Baru")
	assert.Contains(t, out, "-6.570000")
	assert.Contains(t, out, "Kabel semrawut")

	out, _, err = f.run(t, "", "export", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Pasar Baru")
	assert.Contains(t, out, "description: Kabel semrawut")

	out, _, err = f.run(t, "", "export")
	require.NoError(t, err)
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, []float64{107.76, -6.57}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Pasar Baru", fc.Features[0].Properties["namaLokasi"])
	assert.Equal(t, "Kabel semrawut", fc.Features[0].Properties["deskripsi"])

	_, errOut, err := f.run(t, "", "export", "--format", "csv")
	assert.Error(t, err)
	assert.Contains(t, errOut, `unknown format "csv"`)
}

func TestMarkersPlaceAndProject(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")

	out, _, err := f.run(t, "", "place", "--name", "Tengah", "--x", "400", "--y", "300")
	require.NoError(t, err)
	assert.Contains(t, out, `Placed "Tengah"`)

	out, _, err = f.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "-6.571400")
	assert.Contains(t, out, "107.763600")

	out, _, err = f.run(t, "", "project", "--width", "400", "--height", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "200.0")
	assert.Contains(t, out, "100.0")
	assert.Contains(t, out, "yes")
}

func TestMarkersPlaceRequiresName(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")

	_, errOut, err := f.run(t, "", "place", "--name", "  ", "--x", "1", "--y", "1")
	assert.Error(t, err)
	assert.Contains(t, errOut, "name is required")
}

func TestMarkersEdit(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")
	_, _, err := f.run(t, "", "add", "--name", "Gudang", "--description", "LPG", "--lat", "-6.58", "--lng", "107.77")
	require.NoError(t, err)

	out, _, err := f.run(t, "", "edit", "1", "--name", "Gudang LPG")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1")

	out, _, err = f.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Gudang LPG")
	assert.Contains(t, out, "LPG", "description kept")
	assert.Contains(t, out, "-6.580000")

	_, errOut, err := f.run(t, "", "edit", "99", "--name", "x")
	assert.Error(t, err)
	assert.Contains(t, errOut, "hazard location 99 not found")
}

func TestMarkersRemoveConfirmation(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")
	_, _, err := f.run(t, "", "add", "--name", "Gudang", "--lat", "-6.58", "--lng", "107.77")
	require.NoError(t, err)

	out, _, err := f.run(t, "n\n", "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Delete hazard location "Gudang"? [y/N]`)
	assert.Contains(t, out, "Cancelled")

	out, _, err = f.run(t, "", "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled", "no answer means no")

	out, _, err = f.run(t, "", "rm", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1")
	assert.NotContains(t, out, "[y/N]")

	out, _, err = f.run(t, "", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Gudang")
}

func TestMarkersNotices(t *testing.T) {
	cfg := server.Config{AdminTokens: []string{"admin"}, ViewerTokens: []string{"viewer"}}

	viewer := newCLIFixture(t, cfg, "viewer")
	_, errOut, err := viewer.run(t, "", "add", "--name", "X", "--lat", "1", "--lng", "1")
	assert.Error(t, err)
	assert.Contains(t, errOut, "You do not have permission to add hazard locations.")
	assert.NotContains(t, errOut, "Error:", "notices are printed once")

	anonymous := newCLIFixture(t, cfg, "")
	_, errOut, err = anonymous.run(t, "", "list")
	assert.Error(t, err)
	assert.Contains(t, errOut, markers.MsgSessionExpired)
}

func TestMarkersValidationNotice(t *testing.T) {
	f := newCLIFixture(t, server.Config{}, "")

	_, errOut, err := f.run(t, "", "add", "--name", "Jauh", "--lat", "95", "--lng", "107")
	assert.Error(t, err)
	assert.Contains(t, errOut, "Invalid data")
	assert.Contains(t, errOut, "latitude")
}

func TestParseCenter(t *testing.T) {
	lat, lng, err := parseCenter("-6.5714, 107.7636")
	require.NoError(t, err)
	assert.Equal(t, -6.5714, lat)
	assert.Equal(t, 107.7636, lng)

	_, _, err = parseCenter("nope")
	assert.Error(t, err)
}
