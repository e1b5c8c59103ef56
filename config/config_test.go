package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, 3, c.TxMaxAttempts)
	assert.Equal(t, []int{0, 50, 200, 500, 1000, 2000}, c.LevelThresholds)
	assert.Equal(t, []string{"intro", "go-101", "go-102", "go-201"}, c.Lessons)
	assert.Equal(t, PointRules{
		PostCreate:     5,
		CommentCreate:  3,
		LessonComplete: 10,
		LikeReceived:   2,
		LikeWithdrawn:  -2,
		CommentRemoved: -3,
	}, c.Points)
	assert.Empty(t, c.JWTSecret, "secrets never have defaults")
}

func TestLoadJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9090", "AdminEmails": ["root@example.com"]},
		"database": {"Driver": "sqlite", "DatabaseURI": "engage.db", "TxMaxAttempts": 5},
		"reputation": {"LevelThresholds": [0, 10, 20], "Lessons": ["rust-1"], "Points": {"PostCreate": 7}}
	}`), 0o600))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, []string{"root@example.com"}, c.AdminEmails)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 5, c.TxMaxAttempts)
	assert.Equal(t, []int{0, 10, 20}, c.LevelThresholds)
	assert.Equal(t, []string{"rust-1"}, c.Lessons)
	assert.Equal(t, 7, c.Points.PostCreate)
	assert.Equal(t, 3, c.Points.CommentCreate, "unset rules fall back to defaults")
}

func TestLoadJSONConfig_MissingAndInvalid(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "nope.json"), &c))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	assert.Error(t, loadJSONConfig(bad, &c))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("ADMIN_EMAILS", " a@x.io, ,b@x.io ")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("DB_TX_MAX_ATTEMPTS", "0")
	t.Setenv("LESSONS", "a, b")

	c := Defaults()
	applyEnvOverrides(&c)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, c.AdminEmails)
	assert.Equal(t, 120, c.RateLimitPerMinute)
	assert.Equal(t, 3, c.TxMaxAttempts, "non-positive attempts are ignored")
	assert.Equal(t, []string{"a", "b"}, c.Lessons)
}

func TestOpenDatabase(t *testing.T) {
	c := Defaults()
	c.DBDriver = "sqlite"
	c.DatabaseURI = "file:config_test?mode=memory&cache=shared"
	c.LogLevel = "silent"

	type widget struct {
		ID   uint
		Name string
	}
	db, err := OpenDatabase(c)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &widget{}))
	assert.True(t, db.Migrator().HasTable(&widget{}))

	c.DBDriver = "oracle"
	_, err = OpenDatabase(c)
	assert.ErrorContains(t, err, "unsupported database driver")
}
