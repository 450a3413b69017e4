package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-kvstore/kvstored/internal/codec"
	"github.com/cc-kvstore/kvstored/internal/keyspace"
	"github.com/cc-kvstore/kvstored/internal/pubsub"
)

func newDispatcher() *Dispatcher {
	return NewDispatcher(keyspace.New(), pubsub.NewHub())
}

func req(args ...string) codec.Frame {
	items := make([]codec.Frame, len(args))
	for i, a := range args {
		items[i] = codec.BulkString(a)
	}
	return codec.Array(items)
}

func mustParse(t *testing.T, args ...string) Command {
	t.Helper()
	cmd, err := Parse(req(args...))
	require.NoError(t, err)
	return cmd
}

func exec(t *testing.T, d *Dispatcher, args ...string) codec.Frame {
	t.Helper()
	return d.Execute(mustParse(t, args...)).Response
}

func TestPing(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Simple("PONG"), exec(t, d, "PING"))
	assert.Equal(t, codec.BulkString("hi"), exec(t, d, "PING", "hi"))
}

func TestSetGetDelScenario(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Simple("OK"), exec(t, d, "SET", "foo", "bar"))
	assert.Equal(t, codec.BulkString("bar"), exec(t, d, "GET", "foo"))
	assert.Equal(t, codec.Int(1), exec(t, d, "DEL", "foo", "foo"))
}

func TestListScenario(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Int(3), exec(t, d, "RPUSH", "L", "a", "b", "c"))
	assert.Equal(t, codec.Int(4), exec(t, d, "LPUSH", "L", "z"))
	assert.Equal(t, req("z", "a", "b", "c"), exec(t, d, "LRANGE", "L", "0", "-1"))
	assert.Equal(t, codec.BulkString("z"), exec(t, d, "LPOP", "L"))
	assert.Equal(t, codec.Int(3), exec(t, d, "LLEN", "L"))
}

func TestSetScenario(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Int(2), exec(t, d, "SADD", "S", "a", "b", "a"))
	assert.Equal(t, codec.Int(1), exec(t, d, "SISMEMBER", "S", "a"))
	assert.Equal(t, codec.Int(2), exec(t, d, "SREM", "S", "a", "b"))
	assert.Equal(t, codec.Int(0), exec(t, d, "EXISTS", "S"))
}

func TestHashScenario(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Int(1), exec(t, d, "HSET", "u", "name", "Alice"))
	assert.Equal(t, codec.Int(0), exec(t, d, "HSET", "u", "name", "Bob"))
	assert.Equal(t, req("name", "Bob"), exec(t, d, "HGETALL", "u"))
	assert.Equal(t, codec.Int(1), exec(t, d, "HDEL", "u", "name"))
	assert.Equal(t, codec.Simple("none"), exec(t, d, "TYPE", "u"))
}

func TestUnknownCommand(t *testing.T) {
	d := newDispatcher()
	got := exec(t, d, "FROBNICATE", "x")
	assert.Equal(t, codec.Err("ERR unknown command 'FROBNICATE'"), got)
}

func TestArityError(t *testing.T) {
	d := newDispatcher()
	got := exec(t, d, "GET")
	assert.Equal(t, codec.Err("ERR wrong number of arguments for 'get' command"), got)
}

func TestNotIntegerError(t *testing.T) {
	d := newDispatcher()
	got := exec(t, d, "LRANGE", "L", "x", "1")
	assert.Equal(t, codec.Err("ERR value is not an integer or out of range"), got)
}

func TestSetSyntaxError(t *testing.T) {
	d := newDispatcher()
	got := exec(t, d, "SET", "k", "v", "NX")
	assert.Equal(t, codec.KindError, got.Kind)
}

func TestParseRejectsMalformedRequest(t *testing.T) {
	_, err := Parse(codec.Simple("PING"))
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestPublishNoSubscribers(t *testing.T) {
	d := newDispatcher()
	assert.Equal(t, codec.Int(0), exec(t, d, "PUBLISH", "ch", "hello"))
}

func TestSubscribeReturnsSubscriptionAndAck(t *testing.T) {
	d := newDispatcher()
	cmd := mustParse(t, "SUBSCRIBE", "ch")
	result := d.Execute(cmd)
	require.Len(t, result.Subscriptions, 1)
	assert.Equal(t, "ch", result.Subscriptions[0].Channel)
	wantAck := codec.Array([]codec.Frame{
		codec.Array([]codec.Frame{codec.BulkString("subscribe"), codec.BulkString("ch"), codec.Int(1)}),
	})
	assert.Equal(t, wantAck, result.Response)

	n := d.Hub.Publish("ch", []byte("hi"))
	assert.Equal(t, 1, n)
}

func TestIsMutatingClassification(t *testing.T) {
	mutating := []string{"SET", "DEL", "FLUSHDB", "LPUSH", "RPUSH", "LPOP", "RPOP", "SADD", "SREM", "HSET", "HDEL"}
	for _, name := range mutating {
		cmd := Command{Name: name}
		assert.True(t, cmd.IsMutating(), name)
	}

	readOnly := []string{"GET", "PING", "PUBLISH", "SUBSCRIBE", "INFO", "KEYS"}
	for _, name := range readOnly {
		cmd := Command{Name: name}
		assert.False(t, cmd.IsMutating(), name)
	}
}
