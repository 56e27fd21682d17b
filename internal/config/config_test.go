package config_test

import (
	"testing"
	"time"

	"taskclient/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8081", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "taskmanagement_token", cfg.Auth.TokenKey)
	assert.Equal(t, 24, cfg.Auth.TokenExpiryHours)
	assert.Equal(t, "Task Management System", cfg.App.Name)
	assert.False(t, cfg.Features.EnableDebug)
	assert.False(t, cfg.Features.MockAPI)
	assert.Equal(t, "light", cfg.Theme.DefaultTheme)
	assert.True(t, cfg.Theme.EnableDarkMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, time.Second, cfg.Realtime.ReconnectBase)
	assert.Equal(t, 30*time.Second, cfg.Realtime.ReconnectMax)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TASKCLIENT_API_BASE_URL", "https://tasks.example.com")
	t.Setenv("TASKCLIENT_FEATURES_ENABLE_DEBUG", "true")
	t.Setenv("TASKCLIENT_LOGGING_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://tasks.example.com", cfg.API.BaseURL)
	assert.True(t, cfg.Features.EnableDebug)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RejectsInvalidBaseURL(t *testing.T) {
	t.Setenv("TASKCLIENT_API_BASE_URL", "not a url")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestWSBaseURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "http to ws", base: "http://localhost:8081", want: "ws://localhost:8081/ws"},
		{name: "https to wss", base: "https://tasks.example.com", want: "wss://tasks.example.com/ws"},
		{name: "trailing slash", base: "http://localhost:8081/", want: "ws://localhost:8081/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.API.BaseURL = tt.base
			assert.Equal(t, tt.want, cfg.WSBaseURL())
		})
	}
}
