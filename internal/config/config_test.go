package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJSON = `{
	"server_address": ":3000",
	"mongo_uri": "mongodb://json-config:27017",
	"file_storage_path": "json_storage.json",
	"database_dsn": "json-dsn",
	"db_connection_timeout": "3s",
	"cors_allowed_origins": ["http://json-config.com"],
	"enable_metrics": false
}`

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	file, err := os.CreateTemp("", "config*.json")
	require.NoError(t, err)
	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() {
		err := os.Remove(file.Name())
		require.NoError(t, err)
	})
	return file.Name()
}

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	previous := os.Args
	os.Args = append([]string{"testbin"}, args...)
	t.Cleanup(func() { os.Args = previous })
}

func TestDefaults(t *testing.T) {
	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.RunAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "usrinfo", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.EmptyListIsError)
}

func TestApplyDefaultsCopiesSlices(t *testing.T) {
	values := Config{}
	applyDefaults(&values, defaultConfig)

	values.CORSAllowedOrigins[0] = "http://changed.com"

	assert.Equal(t, "*", defaultConfig.CORSAllowedOrigins[0])
}

func TestConfigPriorityJSONOnly(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.RunAddr)
	assert.Equal(t, "mongodb://json-config:27017", cfg.MongoURI)
	assert.Equal(t, "json_storage.json", cfg.DBFileName)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN)
	assert.Equal(t, 3*time.Second, cfg.DBConnectionTimeout)
	assert.Equal(t, []string{"http://json-config.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.EnableMetrics)
	assert.True(t, cfg.EmptyListIsError, "absent keys keep the default")
}

func TestConfigPriorityJSONPlusEnv(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":5000")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("EMPTY_LIST_IS_ERROR", "false")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.RunAddr) // env overrides json
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EmptyListIsError)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigPriorityAllSources(t *testing.T) {
	jsonPath := writeTempJSON(t, testJSON)
	t.Setenv("CONFIG", jsonPath)
	t.Setenv("SERVER_ADDRESS", ":5000")
	t.Setenv("MONGO_URI", "mongodb://env:27017")

	setArgs(t,
		"-a", ":6000",
		"-m", "mongodb://cli:27017",
		"-t", "10.0.0.0/8",
	)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.RunAddr) // CLI > ENV > JSON
	assert.Equal(t, "mongodb://cli:27017", cfg.MongoURI)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedSubnet)
	assert.Equal(t, "json-dsn", cfg.DatabaseDSN) // from JSON
}

func TestConfigFileFromFlag(t *testing.T) {
	jsonPath := writeTempJSON(t, `{"server_address": ":7100"}`)
	setArgs(t, "-c="+jsonPath, "-l", "debug")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigEnvOnly(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_CONNECTION_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.com,http://b.com")

	cfg, err := New(WithDisableFlagsParsing(true))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.RunAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.DBConnectionTimeout)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.CORSAllowedOrigins)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", val: "loud"},
		{name: "bad server address", key: "SERVER_ADDRESS", val: "no-port"},
		{name: "bad trusted subnet", key: "TRUSTED_SUBNET", val: "10.0.0.0/99"},
		{name: "bad grpc address", key: "GRPC_ADDRESS", val: "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := New(WithDisableFlagsParsing(true))
			assert.Error(t, err)
		})
	}
}

func TestConfigBrokenJSON(t *testing.T) {
	t.Setenv("CONFIG", writeTempJSON(t, `{"server_address":`))

	_, err := New(WithDisableFlagsParsing(true))
	assert.Error(t, err)
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.json", configPathFromArgs([]string{"-a", ":1", "-c", "a.json"}))
	assert.Equal(t, "b.json", configPathFromArgs([]string{"--config=b.json"}))
	assert.Equal(t, "", configPathFromArgs([]string{"-a", ":1"}))
}
