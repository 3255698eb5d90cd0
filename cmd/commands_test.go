package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const fixtureArcs = "../internal/arcs/testdata/conversation-arcs.yaml"

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TAVUS_API_KEY", "")
	t.Setenv("TAVUS_PERSONA_ID", "")

	cfgPath := filepath.Join(t.TempDir(), "santacall.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[arcs]\npath = \""+fixtureArcs+"\"\n"), 0644))

	var out bytes.Buffer
	app := &cli.App{
		Name:      "santacall",
		Writer:    &out,
		ErrWriter: &out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}},
		},
		Commands: []*cli.Command{ConfigCommand(), ArcsCommand()},
	}
	err := app.Run(append([]string{"santacall", "--config", cfgPath}, args...))
	return out.String(), err
}

func TestArcsList(t *testing.T) {
	out, err := runApp(t, "arcs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Quick Christmas Magic")
	assert.Contains(t, out, "Extended North Pole Visit")
	assert.Contains(t, out, "ages_5_8")
}

func TestArcsShow(t *testing.T) {
	out, err := runApp(t, "arcs", "show", "5min")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Warm Greeting (60s)")
	assert.Contains(t, out, "timing: avg 8.0s, max 15.0s, pause 1.5s")

	_, err = runApp(t, "arcs", "show", "15min")
	assert.Error(t, err)

	_, err = runApp(t, "arcs", "show")
	assert.Error(t, err)
}

func TestArcsFlagOverride(t *testing.T) {
	_, err := runApp(t, "arcs", "--arcs", "does-not-exist.yaml", "list")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	out, err := runApp(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid (2 conversation arcs, 3 age buckets)")
	assert.Contains(t, out, "TAVUS_API_KEY")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	out, err := runApp(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)
}
