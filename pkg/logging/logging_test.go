package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	defer Configure("info", false)

	Configure("warn", false)
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	Configure("warn", true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	Configure("loud", false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")

	require.NoError(t, ToFile(path))
	log.Info("rolled", "face", 4)
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rolled")
	assert.Contains(t, string(data), "face=4")

	assert.Error(t, ToFile(filepath.Join(t.TempDir(), "missing", "agent.log")))
}
