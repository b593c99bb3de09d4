package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-content-filter/pkg/config"
)

func TestNewRedisClient_Unconfigured(t *testing.T) {
	cfg, err := config.NewConfigFromFile(filepath.Join(t.TempDir(), "conf.ini"))
	require.NoError(t, err)
	assert.Nil(t, NewRedisClient(context.Background(), cfg))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	cfg, err := config.NewConfigFromFile(filepath.Join(t.TempDir(), "conf.ini"))
	require.NoError(t, err)
	// 端口 1 上不会有 Redis
	cfg.Set(config.KeyRedisAddr, "127.0.0.1:1")
	assert.Nil(t, NewRedisClient(context.Background(), cfg))
}
