//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"carriercheck/pkg/testutil/containers"
)

func TestKafkaSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	kafka := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "carriercheck.audit"
	sink, err := NewKafkaSink(ctx, []string{kafka.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close(ctx)

	pub := NewPublisher(sink, WithAsyncBuffer(8))
	pub.Emit(ctx, Event{Action: ActionResultCreated, RequestID: "r1", MCNumber: "123456"})
	pub.Close()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(kafka.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "r1", string(records[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, ActionResultCreated, got.Action)
	assert.Equal(t, "123456", got.MCNumber)

	t.Run("ensure topic is idempotent", func(t *testing.T) {
		adm := kadm.NewClient(consumer)
		assert.NoError(t, EnsureTopic(ctx, adm, topic))
	})
}
