package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100_000, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.ChunkQueue)
	assert.Equal(t, 30, cfg.FrameMS)
	assert.Equal(t, 15, cfg.PoolMaxConn)
	assert.Equal(t, 12_000, cfg.PoolWaitMS)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loggerson.toml")
	contents := `
[ingest]
logFile = "/var/log/access.log"
dbPath = "/var/lib/loggerson/access.db"
chunkSize = 50000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/access.log", cfg.LogFile)
	assert.Equal(t, "/var/lib/loggerson/access.db", cfg.DBPath)
	assert.Equal(t, 50000, cfg.ChunkSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.ChunkQueue)
	assert.Equal(t, 15, cfg.PoolMaxConn)
}

func TestValidateRequiresDBPath(t *testing.T) {
	cfg := Default()
	cfg.LogFile = "/tmp/access.log"
	err := cfg.Validate()
	assert.ErrorContains(t, err, "dbPath")
}

func TestValidateRequiresExactlyOneSource(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "/tmp/loggerson.db"
	assert.ErrorContains(t, cfg.Validate(), "logFile or listen")

	cfg.LogFile = "/tmp/access.log"
	cfg.Listen = ":5044"
	assert.ErrorContains(t, cfg.Validate(), "mutually exclusive")
}
