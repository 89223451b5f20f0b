package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fitlife.db")

	db, err := NewDB(path, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='execution_metrics'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "execution_metrics", name)

	// Re-running migrations on an up-to-date schema is a no-op.
	assert.NoError(t, RunMigrations(path, zap.NewNop()))
}
