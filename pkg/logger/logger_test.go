package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHelpersBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("not initialised")
		Warn("still fine")
	})
}

func TestInitRejectsBadSettings(t *testing.T) {
	require.Error(t, Init("loud", "json", "stdout"))
	require.Error(t, Init("info", "xml", "stdout"))
}

func TestInitWritesJSONToFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "tutorsim.log")
	require.NoError(t, Init("debug", "json", path))

	Info("session finished", zap.Int("rounds", 2))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"session finished"`)
	assert.Contains(t, string(data), `"rounds":2`)
}
