package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	first := b.Subscribe("research")
	second := b.Subscribe("research")
	other := b.Subscribe("reviews")

	ev, err := NewEvent("research.cited", "abc", map[string]int{"citations": 1})
	require.NoError(t, err)
	b.Publish("research", ev)

	assert.Equal(t, "research.cited", receive(t, first).Type)
	assert.Equal(t, "abc", receive(t, second).ID)
	assert.Empty(t, other)
	assert.JSONEq(t, `{"citations":1}`, string(ev.Data))
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("research")
	require.Equal(t, 1, b.SubscriberCount("research"))

	b.Unsubscribe("research", ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount("research"))
}

func TestBrokerPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroker()
	_ = b.Subscribe("research")

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			b.Publish("research", Event{Type: "research.cited"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestRedisRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewBroker()
	relay := NewRedisRelay(client, local)
	require.NoError(t, relay.Start(ctx, "research"))

	sub := local.Subscribe("research")
	ev, err := NewEvent("research.created", "abc", nil)
	require.NoError(t, err)
	relay.Publish("research", ev)

	got := receive(t, sub)
	assert.Equal(t, "research.created", got.Type)
	assert.Equal(t, "abc", got.ID)
}

func TestRedisRelayFallsBackToLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	local := NewBroker()
	relay := NewRedisRelay(client, local)
	sub := local.Subscribe("research")

	mr.Close()
	relay.Publish("research", Event{Type: "research.deleted", ID: "abc"})

	assert.Equal(t, "research.deleted", receive(t, sub).Type)
}
