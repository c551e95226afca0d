package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, `
mode: " History "
apparatus:
  initialAngle: -30
  finalAngle: 30
`))
	require.NoError(t, err)
	assert.Equal(t, ModeHistory, c.Mode)

	arc := c.Apparatus.Normalizer().Arc
	assert.Equal(t, 330.0, arc.Start)
	assert.Equal(t, 30.0, arc.End)
	assert.True(t, arc.Wraps())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown mode", "mode: replay\n", "unknown mode"},
		{"non-finite angle", "apparatus:\n  finalAngle: .inf\n", "final angle"},
		{"empty arc", "apparatus:\n  initialAngle: 350\n  finalAngle: -10\n", "empty arc"},
		{"zero speed", "playback:\n  speed: 0\n", "speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
