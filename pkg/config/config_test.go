package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"NUM_FLOORS", "NUM_ELEVATORS", "REDIS_ADDR", "REDIS_HOST", "REDIS_PORT", "SCHEDULER_ID"} {
		os.Unsetenv(k)
	}
	cfg := Load()
	assert.Equal(t, 10, cfg.NumFloors)
	assert.Equal(t, 3, cfg.NumElevators)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "1", cfg.SchedulerID)
}

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("NUM_FLOORS", "20")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	cfg := Load()
	assert.Equal(t, 20, cfg.NumFloors)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
}

func TestLoadFileMissingIsNotError(t *testing.T) {
	base := Config{NumFloors: 10, NumElevators: 3}
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestLoadFileOverridesSetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elevator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_floors: 25\nscheduler_id: scheduler-prod\n"), 0o644))

	base := Config{NumFloors: 10, NumElevators: 3, SchedulerID: "scheduler-1"}
	cfg, err := LoadFile(path, base)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.NumFloors)
	assert.Equal(t, "scheduler-prod", cfg.SchedulerID)
	assert.Equal(t, 3, cfg.NumElevators, "unset fields keep the base value")
}
