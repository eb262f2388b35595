package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Platform: PlatformConfig{
			Org: "noaman7",
			ID:  "bluemix-poc-1",
		},
		NATS: NATSConfig{
			URLs: []string{"nats://localhost:4222"},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing org", func(t *testing.T) {
		cfg := validConfig()
		cfg.Platform.Org = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing platform id", func(t *testing.T) {
		cfg := validConfig()
		cfg.Platform.ID = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("org normalized to lowercase", func(t *testing.T) {
		cfg := validConfig()
		cfg.Platform.Org = "Noaman7"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "noaman7", cfg.GetOrg())
	})

	t.Run("org invalid for NATS subjects", func(t *testing.T) {
		cfg := validConfig()
		cfg.Platform.Org = "bad org!"
		assert.Error(t, cfg.Validate())
	})

	t.Run("cloudant connection needs name and account", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cloudant.Connections = []ConnectionConfig{{Name: "", Account: "acct"}}
		assert.Error(t, cfg.Validate())

		cfg.Cloudant.Connections = []ConnectionConfig{{Name: "main", Account: ""}}
		assert.Error(t, cfg.Validate())

		cfg.Cloudant.Connections = []ConnectionConfig{{Name: "main", Account: "acct.cloudant.com"}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("duplicate cloudant connection names rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cloudant.Connections = []ConnectionConfig{
			{Name: "main", Account: "a"},
			{Name: "main", Account: "b"},
		}
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_Connection(t *testing.T) {
	cfg := validConfig()
	cfg.Cloudant.Connections = []ConnectionConfig{
		{Name: "orders", Account: "orders.cloudant.com", Username: "u"},
	}

	conn, ok := cfg.Connection("orders")
	assert.True(t, ok)
	assert.Equal(t, "orders.cloudant.com", conn.Account)

	_, ok = cfg.Connection("missing")
	assert.False(t, ok)
}

func TestConfig_Clone(t *testing.T) {
	cfg := validConfig()
	cfg.Cloudant.Connections = []ConnectionConfig{{Name: "main", Account: "a"}}

	clone := cfg.Clone()
	clone.Platform.Org = "other"
	clone.Cloudant.Connections[0].Account = "changed"

	assert.Equal(t, "noaman7", cfg.Platform.Org)
	assert.Equal(t, "a", cfg.Cloudant.Connections[0].Account)
}

func TestSafeConfig(t *testing.T) {
	sc := NewSafeConfig(validConfig())

	// Get returns a copy
	got := sc.Get()
	got.Platform.ID = "mutated"
	assert.Equal(t, "bluemix-poc-1", sc.Get().Platform.ID)

	// Update validates
	assert.Error(t, sc.Update(nil))
	assert.Error(t, sc.Update(&Config{}))

	updated := validConfig()
	updated.Platform.ID = "bluemix-poc-2"
	require.NoError(t, sc.Update(updated))
	assert.Equal(t, "bluemix-poc-2", sc.Get().Platform.ID)
}

func TestConfig_UnmarshalJSON_DurationString(t *testing.T) {
	raw := `{
		"platform": {"org": "noaman7", "id": "p1"},
		"nats": {"urls": ["nats://localhost:4222"], "reconnect_wait": "5s"}
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.NATS.URLs)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return name
}

func TestLoader_LoadJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"platform": {"org": "noaman7", "id": "poc"},
		"nats": {"reconnect_wait": "3s"},
		"cloudant": {
			"connections": [
				{"name": "main", "account": "acct.cloudant.com", "username": "u", "password": "p"}
			]
		}
	}`)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "noaman7", cfg.Platform.Org)
	assert.Equal(t, 3*time.Second, cfg.NATS.ReconnectWait)
	// Defaults survive a partial layer
	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.NATS.URLs)

	conn, ok := cfg.Connection("main")
	require.True(t, ok)
	assert.Equal(t, "acct.cloudant.com", conn.Account)
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
platform:
  org: noaman7
  id: poc
metrics:
  port: 9999
cloudant:
  connections:
    - name: main
      account: acct.cloudant.com
`)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "poc", cfg.Platform.ID)
	assert.Equal(t, 9999, cfg.Metrics.Port)

	conn, ok := cfg.Connection("main")
	require.True(t, ok)
	assert.Equal(t, "acct.cloudant.com", conn.Account)
}

func TestLoader_LayerOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	require.NoError(t, os.WriteFile("base.json", []byte(`{
		"platform": {"org": "noaman7", "id": "base"},
		"metrics": {"port": 9090}
	}`), 0600))
	require.NoError(t, os.WriteFile("override.json", []byte(`{
		"platform": {"id": "override"}
	}`), 0600))

	loader := NewLoader()
	loader.AddLayer("base.json")
	loader.AddLayer("override.json")
	cfg, err := loader.Load()
	require.NoError(t, err)

	// Override replaces only the fields it carries
	assert.Equal(t, "override", cfg.Platform.ID)
	assert.Equal(t, "noaman7", cfg.Platform.Org)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("BLUEMIXPOC_PLATFORM_ID", "from-env")
	t.Setenv("BLUEMIXPOC_NATS_URLS", "nats://a:4222,nats://b:4222")
	t.Setenv("BLUEMIXPOC_CLOUDANT_MAIN_DB_PASSWORD", "secret")

	path := writeConfigFile(t, "config.json", `{
		"platform": {"org": "noaman7", "id": "file"},
		"cloudant": {"connections": [{"name": "main-db", "account": "acct"}]}
	}`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Platform.ID)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.NATS.URLs)

	conn, ok := cfg.Connection("main-db")
	require.True(t, ok)
	assert.Equal(t, "secret", conn.Password)
}

func TestLoader_InvalidFiles(t *testing.T) {
	loader := NewLoader()

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadFile("does-not-exist.json")
		assert.Error(t, err)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		assert.Error(t, validateConfigPath("config.toml"))
	})

	t.Run("path traversal", func(t *testing.T) {
		assert.Error(t, validateConfigPath("../../etc/passwd.json"))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfigFile(t, "bad.json", `{"platform": {`)
		_, err := loader.LoadFile(path)
		assert.Error(t, err)
	})
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": {"b": [1, 2, {"c": 3}]}}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": {"b": }`)))

	// Brackets inside strings do not count toward depth
	assert.NoError(t, validateJSONDepth([]byte(`{"a": "{{{{"}`)))
}

func TestConfig_SaveToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	cfg := validConfig()
	require.NoError(t, cfg.SaveToFile("out.json"))

	loaded, err := NewLoader().LoadFile("out.json")
	require.NoError(t, err)
	assert.Equal(t, cfg.Platform.ID, loaded.Platform.ID)
}
