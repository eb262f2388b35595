package component

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFactoryConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{"empty config", "", false},
		{"valid object", `{"database": "orders", "limit": 200}`, false},
		{"nested object", `{"query": {"field": "name", "value": "x"}}`, false},
		{"malformed JSON", `{"database":`, true},
		{"null byte in string", "{\"name\": \"bad\x00value\"}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactoryConfig(json.RawMessage(tt.config))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFactoryConfig_DepthLimit(t *testing.T) {
	// Build JSON nested beyond the depth limit
	deep := strings.Repeat(`{"a":`, 15) + `1` + strings.Repeat(`}`, 15)
	err := ValidateFactoryConfig(json.RawMessage(deep))
	assert.Error(t, err)
}

func TestValidateFactoryConfig_SizeLimit(t *testing.T) {
	big := `{"data": "` + strings.Repeat("x", MaxJSONSize) + `"}`
	err := ValidateFactoryConfig(json.RawMessage(big))
	assert.Error(t, err)
}

type sampleConfig struct {
	Database string `json:"database"`
	Limit    int    `json:"limit"`
}

func (c *sampleConfig) Validate() error {
	if c.Database == "" {
		return assert.AnError
	}
	return nil
}

func TestSafeUnmarshal(t *testing.T) {
	var cfg sampleConfig
	err := SafeUnmarshal(json.RawMessage(`{"database": "orders", "limit": 10}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Database)
	assert.Equal(t, 10, cfg.Limit)
}

func TestSafeUnmarshal_ValidatableFailure(t *testing.T) {
	var cfg sampleConfig
	err := SafeUnmarshal(json.RawMessage(`{"limit": 10}`), &cfg)
	assert.Error(t, err)
}

func TestSafeUnmarshal_RequiresPointer(t *testing.T) {
	var cfg sampleConfig
	err := SafeUnmarshal(json.RawMessage(`{"database": "x"}`), cfg)
	assert.Error(t, err)
}

func TestSafeUnmarshal_EmptyConfig(t *testing.T) {
	cfg := sampleConfig{Database: "default"}
	err := SafeUnmarshal(nil, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Database)
}
