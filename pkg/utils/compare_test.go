package utils

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

func TestStreamConfigEqual(t *testing.T) {
	base := nats.StreamConfig{
		Name:      "leads_stream",
		Subjects:  []string{"v1.leads.upsert.*", "v1.leads.update.*"},
		Retention: nats.LimitsPolicy,
		MaxMsgs:   100000,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}

	t.Run("identical configs", func(t *testing.T) {
		other := base
		other.Subjects = append([]string(nil), base.Subjects...)
		assert.True(t, StreamConfigEqual(base, other))
	})

	t.Run("different max age", func(t *testing.T) {
		other := base
		other.MaxAge = 48 * time.Hour
		assert.False(t, StreamConfigEqual(base, other))
	})

	t.Run("different subject list", func(t *testing.T) {
		other := base
		other.Subjects = []string{"v1.leads.upsert.*"}
		assert.False(t, StreamConfigEqual(base, other))
	})

	t.Run("subject order matters", func(t *testing.T) {
		other := base
		other.Subjects = []string{"v1.leads.update.*", "v1.leads.upsert.*"}
		assert.False(t, StreamConfigEqual(base, other))
	})

	t.Run("non-core fields ignored", func(t *testing.T) {
		other := base
		other.Subjects = append([]string(nil), base.Subjects...)
		other.Description = "changed"
		assert.True(t, StreamConfigEqual(base, other))
	})
}

func TestConsumerConfigEqual(t *testing.T) {
	base := nats.ConsumerConfig{
		Durable:       "leads_consumer_workspace-1",
		AckPolicy:     nats.AckExplicitPolicy,
		FilterSubject: "v1.leads.upsert.workspace-1",
		MaxDeliver:    5,
	}

	t.Run("identical configs", func(t *testing.T) {
		assert.True(t, ConsumerConfigEqual(base, base))
	})

	t.Run("different durable name", func(t *testing.T) {
		other := base
		other.Durable = "leads_consumer_workspace-2"
		assert.False(t, ConsumerConfigEqual(base, other))
	})

	t.Run("different max deliver", func(t *testing.T) {
		other := base
		other.MaxDeliver = 3
		assert.False(t, ConsumerConfigEqual(base, other))
	})

	t.Run("non-core fields ignored", func(t *testing.T) {
		other := base
		other.AckWait = time.Minute
		assert.True(t, ConsumerConfigEqual(base, other))
	})
}
