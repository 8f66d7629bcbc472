package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-softrigid/pkg/config"
	"github.com/opd-ai/go-softrigid/pkg/logging"
)

// execute runs the root command with args and fresh flag values
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = logging.Discard()

	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	simulateCmd.Flags().VisitAll(reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigDefaultCmd(t *testing.T) {
	for _, name := range []string{"softrigid.yaml", "softrigid.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			out, err := execute(t, "config", "default", path)
			require.NoError(t, err)
			assert.Contains(t, out, "wrote "+path)

			loaded, err := config.LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, config.DefaultConfig(), loaded)
		})
	}
}

func TestConfigDefaultCmd_UsesConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flag.json")

	_, err := execute(t, "--config", path, "config", "default")
	require.NoError(t, err)

	_, err = config.LoadConfig(path)
	assert.NoError(t, err)
}

func TestSimulateCmd(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "--config", missing, "simulate",
		"--steps", "60", "--rows", "3", "--cols", "3", "--log-every", "0")
	require.NoError(t, err)

	var (
		steps, contacts, unconverged int
		mean, lowest                 float64
	)
	_, err = fmt.Sscanf(strings.TrimSpace(out), "steps=%d contacts=%d mean_height=%f min_height=%f unconverged=%d",
		&steps, &contacts, &mean, &lowest, &unconverged)
	require.NoError(t, err, "unexpected output %q", out)

	assert.Equal(t, 60, steps)
	assert.Positive(t, contacts)
	assert.GreaterOrEqual(t, lowest, 0.0)
	assert.Less(t, mean, 0.8)
}

func TestSimulateCmd_WithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parallel.yaml")
	cfg := config.DefaultConfig()
	cfg.Solver.Parallel = true
	cfg.Solver.Workers = 2
	require.NoError(t, config.SaveConfig(cfg, path))

	out, err := execute(t, "--config", path, "simulate", "--steps", "10", "--rows", "2", "--cols", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "steps=10 "), "unexpected output %q", out)
}

func TestSimulateCmd_Render(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "--config", missing, "simulate", "--steps", "5", "--rows", "3", "--cols", "3", "--render")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1+24+2)
	assert.True(t, strings.HasPrefix(lines[0], "steps=5 "))
	assert.Equal(t, "+"+strings.Repeat("-", 60)+"+", lines[1])
	assert.Contains(t, out, "=")
	assert.Contains(t, out, "#")
	assert.Contains(t, out, "*")
}

func TestSimulateCmd_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	t.Run("no steps", func(t *testing.T) {
		_, err := execute(t, "--config", missing, "simulate", "--steps", "0")
		assert.ErrorContains(t, err, "steps must be at least 1")
	})

	t.Run("bad environment", func(t *testing.T) {
		t.Setenv(config.EnvMaxIterations, "0")
		_, err := execute(t, "--config", missing, "simulate", "--steps", "1")
		assert.ErrorContains(t, err, "apply environment configuration")
	})

	t.Run("degenerate cloth", func(t *testing.T) {
		_, err := execute(t, "--config", missing, "simulate", "--rows", "1")
		assert.ErrorContains(t, err, "cloth grid needs at least 2x2 nodes")
	})
}
