package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenAddr(t *testing.T) {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr())

	// Host为空时监听所有网卡
	cfg.Server.Host = ""
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 2, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 5, cfg.RateLimit.MaxPerDay)
	assert.Equal(t, 300, cfg.RateLimit.CooldownSec)
	assert.Equal(t, 3600, cfg.Cache.TTLSec)
	assert.Equal(t, 2000, cfg.Prompt.MaxTokens)
	assert.Equal(t, 200, cfg.Prompt.MaxFieldChars)
	assert.NotEmpty(t, cfg.SiliconFlow.Model)
	assert.NotEmpty(t, cfg.SiliconFlow.BaseURL)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	var cfg Config
	cfg.RateLimit.MaxPerHour = 10
	cfg.Cache.TTLSec = 60
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.RateLimit.MaxPerHour)
	assert.Equal(t, 60, cfg.Cache.TTLSec)
}
