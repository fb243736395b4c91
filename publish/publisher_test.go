package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Encode(t *testing.T) {
	env := NewEnvelope("veh-1", map[string]float64{"distanceKm": 1.5})
	require.NotEmpty(t, env.ID)

	b, err := env.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, env.ID, decoded["id"])
	assert.Equal(t, "veh-1", decoded["key"])
	assert.Equal(t, 1.5, decoded["data"].(map[string]any)["distanceKm"])

	_, err = NewEnvelope("k", make(chan int)).Encode()
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), "veh-9", map[string]string{"route": "444"}))
	assert.Contains(t, buf.String(), "key=veh-9")
	assert.Contains(t, buf.String(), "444")
	assert.NoError(t, p.Close())
}

func TestNewKafkaPublisher_NoBrokers(t *testing.T) {
	_, err := NewKafkaPublisher("  ", "topic")
	assert.Error(t, err)
}

func TestKafkaPublisher(t *testing.T) {
	brokers := os.Getenv("TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("TEST_KAFKA_BROKERS not set")
	}
	p, err := NewKafkaPublisher(brokers, "gtfsrt-locator-test")
	require.NoError(t, err)
	defer p.Close()

	assert.NoError(t, p.Publish(context.Background(), "veh-1", map[string]string{"hello": "world"}))
}
