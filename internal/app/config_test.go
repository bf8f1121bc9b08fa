package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  run_mode: longpoll
commerce:
  client_id: cid
  client_secret: secret
  timeout_seconds: 10
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Core.Telegram.Token)
	assert.Equal(t, "cid", cfg.Commerce.ClientID)
	assert.Equal(t, 10, cfg.Commerce.TimeoutSeconds)
	assert.Same(t, &cfg.Core, cfg.CoreConfig())
}

func TestLoad_MissingCommerceCredentials(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
commerce:
  client_id: cid
`)

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_secret")
}

func TestLoad_MissingTelegramToken(t *testing.T) {
	path := writeConfig(t, `
commerce:
  client_id: cid
  client_secret: secret
`)

	_, err := Load(path)

	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("ELASTICPATH_CLIENT_SECRET", "from-env")
	path := writeConfig(t, `
telegram:
  token: "123:abc"
commerce:
  client_id: cid
  client_secret: from-file
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Commerce.ClientSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
