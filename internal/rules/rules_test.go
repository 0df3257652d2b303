package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "structural_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeRules(t, `
- id: STR-001
  description: Document must contain an overview section.
  critical: true
- id: STR-002
  description: Dependencies must be enumerated.
  critical: false
`)

	rules, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "STR-001", rules[0].ID)
	assert.True(t, rules[0].Critical)
	assert.False(t, rules[1].Critical)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeRules(t, "{not a list"))
		assert.Error(t, err)
	})

	t.Run("rule without id", func(t *testing.T) {
		_, err := Load(writeRules(t, "- description: anonymous rule\n  critical: false\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no id")
	})
}

func TestFormat(t *testing.T) {
	out := Format([]Rule{
		{ID: "STR-001", Description: "Overview required.", Critical: true},
		{ID: "STR-002", Description: "Dependencies listed.", Critical: false},
	})
	assert.Equal(t, "- STR-001: Overview required. (Critical: true)\n- STR-002: Dependencies listed. (Critical: false)\n", out)
}
