package main

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/app"
	"github.com/upb/task-tracker/config"
	"github.com/upb/task-tracker/repositories/postgres"
	"go.uber.org/zap/zaptest"
)

func TestInitLogger(t *testing.T) {
	t.Run("default json logger", func(t *testing.T) {
		cfg := testConfig()
		cfg.Observability.LogLevel = "info"

		logger, err := initLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("development console logger", func(t *testing.T) {
		cfg := testConfig()
		cfg.Observability.LogLevel = "debug"
		cfg.Observability.LogFormat = "console"

		logger, err := initLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := testConfig()
		cfg.Observability.LogLevel = "invalid"

		logger, err := initLogger(cfg)
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	serveCmd, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serveCmd.Name())

	for _, sub := range []string{"up", "down", "version"} {
		cmd, _, err := root.Find([]string{"migrate", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, cmd.Name())
	}
}

func TestServe(t *testing.T) {
	t.Run("stops when the context is cancelled", func(t *testing.T) {
		deps := newTestDependencies(t, testConfig())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serve(ctx, deps) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}
	})

	t.Run("returns listen errors", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.Port = -1
		deps := newTestDependencies(t, cfg)

		err := serve(context.Background(), deps)
		assert.Error(t, err)
	})
}

// Test helpers

func newTestDependencies(t *testing.T, cfg *config.Config) *app.Dependencies {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	deps, err := app.NewDependenciesWithDB(cfg, postgres.NewDBWithConnection(sqlDB, logger), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		deps.LoginLimiter.Stop()
		_ = sqlDB.Close()
	})
	return deps
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
		Session: config.SessionConfig{
			SecretKey: "main-test-secret-main-test-secret",
			TTL:       time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			LoginPerMinute: 30,
			LoginBurst:     10,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}
