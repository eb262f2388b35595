package component

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort_MarshalRoundTrip(t *testing.T) {
	port := Port{
		Name:      "results",
		Direction: DirectionOutput,
		Required:  true,
		Config: NATSPort{
			Subject: "documents.results",
			Interface: &InterfaceContract{
				Type:    "message.Envelope",
				Version: "v1",
			},
		},
	}

	data, err := json.Marshal(port)
	require.NoError(t, err)

	var decoded Port
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "results", decoded.Name)
	assert.Equal(t, DirectionOutput, decoded.Direction)

	natsConfig, ok := decoded.Config.(NATSPort)
	require.True(t, ok)
	assert.Equal(t, "documents.results", natsConfig.Subject)
	require.NotNil(t, natsConfig.Interface)
	assert.Equal(t, "message.Envelope", natsConfig.Interface.Type)
}

func TestPort_UnmarshalUnknownType(t *testing.T) {
	raw := `{"name":"x","direction":"input","config":{"type":"carrier-pigeon","data":{}}}`
	var port Port
	err := json.Unmarshal([]byte(raw), &port)
	assert.Error(t, err)
}

func TestNATSPort_Identity(t *testing.T) {
	port := NATSPort{Subject: "documents.write"}
	assert.Equal(t, "nats:documents.write", port.ResourceID())
	assert.False(t, port.IsExclusive())
	assert.Equal(t, "nats", port.Type())
}

func TestBuildPortFromDefinition(t *testing.T) {
	def := PortDefinition{
		Name:      "write",
		Subject:   "documents.write",
		Interface: "message.Envelope",
		Required:  true,
	}

	port := BuildPortFromDefinition(def, DirectionInput)
	assert.Equal(t, "write", port.Name)
	assert.Equal(t, DirectionInput, port.Direction)

	natsConfig, ok := port.Config.(NATSPort)
	require.True(t, ok)
	assert.Equal(t, "documents.write", natsConfig.Subject)
	require.NotNil(t, natsConfig.Interface)
}

func TestBuildPortFromDefinition_Request(t *testing.T) {
	def := PortDefinition{Name: "query", Type: "nats-request", Subject: "documents.query"}

	port := BuildPortFromDefinition(def, DirectionInput)
	reqConfig, ok := port.Config.(NATSRequestPort)
	require.True(t, ok)
	assert.Equal(t, "1s", reqConfig.Timeout)
}

func TestMergePortConfigs(t *testing.T) {
	defaults := []Port{
		{Name: "write", Direction: DirectionInput, Config: NATSPort{Subject: "documents.write"}},
	}
	overrides := []PortDefinition{
		{Name: "write", Subject: "custom.write"},
		{Name: "extra", Subject: "custom.extra"},
	}

	merged := MergePortConfigs(defaults, overrides, DirectionInput)
	require.Len(t, merged, 2)

	byName := map[string]Port{}
	for _, p := range merged {
		byName[p.Name] = p
	}

	writeConfig := byName["write"].Config.(NATSPort)
	assert.Equal(t, "custom.write", writeConfig.Subject)

	extraConfig := byName["extra"].Config.(NATSPort)
	assert.Equal(t, "custom.extra", extraConfig.Subject)
}
