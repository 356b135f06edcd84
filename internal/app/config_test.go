package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_TIMEZONE", "America/Sao_Paulo")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, NumberStrategyCounter, cfg.QuoteNumberStrategy)
	assert.Equal(t, 3, cfg.PayablesReminderDays)
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
	assert.Equal(t, "127.0.0.1:6379", cfg.AsynqRedis().Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"empty secret":     {"JWT_SECRET": ""},
		"unknown strategy": {"JWT_SECRET": "x", "QUOTE_NUMBER_STRATEGY": "random"},
		"unknown timezone": {"JWT_SECRET": "x", "APP_TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNilConfigLocation(t *testing.T) {
	var cfg *Config
	assert.NotNil(t, cfg.Location())
	assert.False(t, cfg.IsProduction())
}
