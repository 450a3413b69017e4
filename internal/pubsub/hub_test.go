package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCountNoSubscribers(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.Publish("ch", []byte("m")))
}

func TestPublishDeliversInOrder(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ch")

	n := h.Publish("ch", []byte("one"))
	assert.Equal(t, 1, n)
	n = h.Publish("ch", []byte("two"))
	assert.Equal(t, 1, n)

	m1 := recv(t, sub)
	assert.Equal(t, "one", string(m1.Payload))
	m2 := recv(t, sub)
	assert.Equal(t, "two", string(m2.Payload))
}

func TestUnsubscribeDropsCount(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("ch")
	assert.Equal(t, 1, h.ChannelSubscriberCount("ch"))

	sub.Unsubscribe()
	assert.Equal(t, 0, h.ChannelSubscriberCount("ch"))
	assert.Equal(t, 0, h.Publish("ch", []byte("m")))
}

func TestMultipleSubscribersAllCounted(t *testing.T) {
	h := NewHub()
	sub1 := h.Subscribe("ch")
	sub2 := h.Subscribe("ch")

	n := h.Publish("ch", []byte("hi"))
	assert.Equal(t, 2, n)

	require.Equal(t, "hi", string(recv(t, sub1).Payload))
	require.Equal(t, "hi", string(recv(t, sub2).Payload))
}

func TestOverflowSignalsLagWithoutBlockingPublisher(t *testing.T) {
	h := &Hub{channels: make(map[string]map[uint64]*Subscription), backlog: 2}
	sub := h.Subscribe("ch")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish("ch", []byte{byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber queue")
	}
	_ = sub
}

func recv(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case m := <-sub.C():
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}
