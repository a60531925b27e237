package config_test

import (
	"testing"

	"github.com/oitzujoey/duck-lisp-sub001/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 65536, cfg.HeapCapacity)
	require.Equal(t, uint64(0), cfg.MaxSteps)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DUCK_HEAP_CAPACITY", "128")
	t.Setenv("DUCK_MAX_STEPS", "1000")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 128, cfg.HeapCapacity)
	require.Equal(t, uint64(1000), cfg.MaxSteps)
}
