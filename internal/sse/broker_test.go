package sse

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/inxsource/sales-assistant-go/internal/redis"
)

// testBroker points at an unreachable Redis; the pub/sub listener just
// retries in the background, which is enough to exercise the client and
// subscription lifecycle.
func testBroker() *Broker {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	return NewBroker(&redisclient.Client{Client: client})
}

func TestBrokerSubscribeUnsubscribe(t *testing.T) {
	b := testBroker()
	defer b.Close()

	c1 := b.Subscribe("biz-1")
	c2 := b.Subscribe("biz-1")
	assert.Equal(t, 2, b.ClientCount("biz-1"))

	b.Unsubscribe(c1)
	assert.Equal(t, 1, b.ClientCount("biz-1"))

	select {
	case <-c1.Done:
	default:
		t.Fatal("done not closed for unsubscribed client")
	}

	// A second unsubscribe of the same client is a no-op.
	b.Unsubscribe(c1)
	assert.Equal(t, 1, b.ClientCount("biz-1"))

	b.Unsubscribe(c2)
	assert.Equal(t, 0, b.ClientCount("biz-1"))
}

func TestBrokerResubscribeStartsFreshListener(t *testing.T) {
	b := testBroker()
	defer b.Close()

	first := b.Subscribe("biz-1")

	b.mu.RLock()
	firstSub := b.subs["biz-1"]
	b.mu.RUnlock()
	require.NotNil(t, firstSub)

	b.Unsubscribe(first)

	// The listener for the emptied channel is told to stop; otherwise a
	// resubscribe would stack a second listener on the same channel and
	// every event would arrive twice.
	select {
	case <-firstSub.done:
	default:
		t.Fatal("listener not released after last client left")
	}

	second := b.Subscribe("biz-1")
	defer b.Unsubscribe(second)

	b.mu.RLock()
	secondSub := b.subs["biz-1"]
	b.mu.RUnlock()
	require.NotNil(t, secondSub)
	assert.NotSame(t, firstSub, secondSub)
	assert.Equal(t, 1, b.ClientCount("biz-1"))
}

func TestBrokerBroadcast(t *testing.T) {
	b := testBroker()
	defer b.Close()

	c := b.Subscribe("biz-1")
	defer b.Unsubscribe(c)
	other := b.Subscribe("biz-2")
	defer b.Unsubscribe(other)

	b.broadcast("biz-1", Event{Type: EventReplySent})

	select {
	case ev := <-c.Events:
		assert.Equal(t, EventReplySent, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	assert.Empty(t, other.Events)
}
