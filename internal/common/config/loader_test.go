package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: test-api\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-api", cfg.App.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "linear_regression", cfg.Model.Type)
	assert.Equal(t, MissingPolicyDefaultZero, cfg.Features.MissingPolicy)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "house-price-api", cfg.Observability.ServiceName)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
model:
  path: ${TEST_MODEL_DIR}/model.json
`)
	t.Setenv("TEST_MODEL_DIR", "/srv/models")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FEATURES_MISSING_POLICY", "STRICT")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/models/model.json", cfg.Model.Path)
	assert.Equal(t, MissingPolicyStrict, cfg.Features.MissingPolicy)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bad policy",
			body: "features:\n  missing_policy: maybe\n",
			want: "features.missing_policy",
		},
		{
			name: "audit without user",
			body: "audit:\n  enabled: true\n",
			want: "audit.postgres.user",
		},
		{
			name: "port out of range",
			body: "server:\n  port: 70000\n",
			want: "server.port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", p.GetDSN())
}
