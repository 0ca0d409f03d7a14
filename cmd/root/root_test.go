package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/config"
	"fjacquet/bank-movements/internal/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "bank-movements", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "Caixabank and Santander")
	assert.Contains(t, root.Cmd.Long, "expense ledger")
	assert.NotNil(t, root.Cmd.RunE)
}

func TestRootCommand_Flags(t *testing.T) {
	for _, name := range []string{"config", "log-level", "log-format", "store", "dsn"} {
		assert.NotNil(t, root.Cmd.PersistentFlags().Lookup(name), name)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Cleanup(func() { root.Flags = root.GlobalFlags{} })

	root.Flags = root.GlobalFlags{
		ConfigFile:  writeConfig(t, "log:\n  level: warn\nstore:\n  driver: sqlite\n  dsn: data/x.db\n"),
		LogLevel:    "debug",
		StoreDriver: config.DriverMemory,
	}

	cfg, err := root.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "data/x.db", cfg.Store.DSN)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	t.Cleanup(func() { root.Flags = root.GlobalFlags{} })

	root.Flags = root.GlobalFlags{
		ConfigFile:  writeConfig(t, "store:\n  driver: memory\n"),
		StoreDriver: "mongo",
	}

	_, err := root.LoadConfig()
	assert.ErrorContains(t, err, "invalid store driver")
}

func TestWithContainer(t *testing.T) {
	t.Cleanup(func() { root.Flags = root.GlobalFlags{} })
	root.Flags = root.GlobalFlags{ConfigFile: writeConfig(t, "store:\n  driver: memory\n")}

	called := false
	err := root.WithContainer(func(c *container.Container) error {
		called = true
		assert.Equal(t, config.DriverMemory, c.GetConfig().Store.Driver)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
