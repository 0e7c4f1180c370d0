package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/colloquy/filter"
)

const minimalYAML = `
personas:
  - name: alice
    display_name: Alice
    system_prompt: "You are Alice."
  - name: bob
    display_name: Bob
    system_prompt: "You are Bob."
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colloquy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(writeConfig(t, minimalYAML)).Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "peer", cfg.Session.Mode)
	assert.Equal(t, 2*time.Second, cfg.Session.BaseTurnDelay)
	assert.Equal(t, 0.1, cfg.Session.MinRate)
	assert.Equal(t, 5.0, cfg.Session.MaxRate)
	assert.True(t, cfg.Filter.Enabled)
	require.Len(t, cfg.Personas, 2)
	assert.Equal(t, "alice", cfg.Personas[0].Name)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(writeConfig(t, minimalYAML+`
log:
  level: debug
session:
  mode: solo
  base_turn_delay: 500ms
filter:
  enabled: true
  blocklist: [badword]
  action: block
`)).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "solo", cfg.Session.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.BaseTurnDelay)
	assert.Equal(t, "block", cfg.Filter.Action)
	assert.Equal(t, []string{"badword"}, cfg.Filter.Blocklist)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("COLLOQUY_LOG_LEVEL", "warn")
	t.Setenv("COLLOQUY_LLM_API_KEY", "sk-from-env")
	t.Setenv("COLLOQUY_SESSION_BASE_TURN_DELAY", "3s")

	cfg, err := NewLoader().WithConfigPath(writeConfig(t, minimalYAML+`
log:
  level: debug
`)).Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Session.BaseTurnDelay)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/nonexistent/colloquy.yaml").Load()
	// Defaults alone fail validation: no personas.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persona")
}

func TestValidateRejectsDuplicatePersonas(t *testing.T) {
	_, err := NewLoader().WithConfigPath(writeConfig(t, `
personas:
  - name: alice
    system_prompt: "a"
  - name: alice
    system_prompt: "b"
`)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")
}

func TestValidateRejectsMissingPrompt(t *testing.T) {
	_, err := NewLoader().WithConfigPath(writeConfig(t, `
personas:
  - name: alice
`)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system_prompt")
}

func TestValidateRejectsBadMode(t *testing.T) {
	_, err := NewLoader().WithConfigPath(writeConfig(t, minimalYAML+`
session:
  mode: chorus
`)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session mode")
}

func TestFilterConfigValue(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(writeConfig(t, minimalYAML+`
filter:
  enabled: true
  blocklist: [one, two]
  action: censor
  mask: "#"
`)).Load()
	require.NoError(t, err)

	fc := cfg.FilterConfigValue()
	assert.True(t, fc.Enabled)
	assert.Equal(t, filter.ActionCensor, fc.Action)
	assert.Equal(t, '#', fc.MaskRune)
	assert.Equal(t, []string{"one", "two"}, fc.Blocklist)
}

func TestCustomValidator(t *testing.T) {
	_, err := NewLoader().
		WithConfigPath(writeConfig(t, minimalYAML)).
		WithValidator(func(c *Config) error {
			if c.LLM.APIKey == "" {
				return assert.AnError
			}
			return nil
		}).
		Load()
	require.Error(t, err)
}
