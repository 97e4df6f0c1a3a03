package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "sqlsh.yaml"), []byte(`
databases:
  orders:
    driver: mysql
    host: db.example.com
    port: 3307
    user: app
    password: hunter2
    database: orders
  scratch:
    driver: sqlite3
    database: /tmp/scratch.db
`), 0o644)
	require.NoError(t, err)

	old := directory
	directory = dir
	defer func() { directory = old }()

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, config.Databases, 2)

	orders := config.Databases["orders"]
	assert.Equal(t, "mysql", orders.Driver)
	assert.Equal(t, "db.example.com", orders.Host)
	assert.Equal(t, 3307, orders.Port)
	assert.Equal(t, "app", orders.User)
	assert.Equal(t, "orders", orders.Database)

	assert.Equal(t, "/tmp/scratch.db", config.Databases["scratch"].Database)
}

func TestLoadConfig_Missing(t *testing.T) {
	old := directory
	directory = t.TempDir()
	defer func() { directory = old }()

	_, err := LoadConfig()
	require.Error(t, err)
}
