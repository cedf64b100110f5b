package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/core/publish"
)

type memWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (m *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *memWriter) Close() error {
	m.closed = true
	return nil
}

func TestPublishKeyedByRegion(t *testing.T) {
	w := &memWriter{}
	p := &Publisher{w: w}
	created := time.Date(2024, 8, 1, 6, 0, 0, 0, time.UTC)
	rec := planner.Recommendation{ID: "r9", Region: "national", Mode: "above", Provider: "mock", CreatedAt: created,
		Windows: []model.OptimalChargingWindow{{StartTime: created, EndTime: created.Add(time.Hour), CleanEnergyPercentage: 90}}}

	require.NoError(t, p.Publish(context.Background(), rec))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "national", string(msg.Key))
	assert.Equal(t, created, msg.Time)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, "above", string(msg.Headers[0].Value))

	var decoded publish.Message
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "r9", decoded.ID)
	assert.Equal(t, 90.0, decoded.Windows[0].CleanEnergyPercentage)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisherFromRegistry(t *testing.T) {
	pubs, err := publish.NewPublishers([]factory.ModuleConfig{{Type: "kafka", Conf: map[string]any{
		"brokers": []string{"localhost:9092"}, "batch_timeout": "10ms",
	}}})
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	kp := pubs[0].(*Publisher)
	kw := kp.w.(*kafka.Writer)
	assert.Equal(t, "cleancharge.recommendations", kw.Topic)
	assert.Equal(t, 10*time.Millisecond, kw.BatchTimeout)
	require.NoError(t, kp.Close())

	_, err = NewPublisher(Config{})
	assert.Error(t, err)
}
