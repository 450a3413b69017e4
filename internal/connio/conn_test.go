package connio

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cc-kvstore/kvstored/internal/codec"
)

func pipe(t *testing.T) (client, server net.Conn) {
	t.Helper()
	client, server = net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestReadFrameSplitAcrossWrites(t *testing.T) {
	client, server := pipe(t)
	c := New(server)

	wire := codec.Encode(codec.Array([]codec.Frame{codec.BulkString("PING")}))
	go func() {
		client.Write(wire[:3])
		time.Sleep(10 * time.Millisecond)
		client.Write(wire[3:])
	}()

	f, raw, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, wire, raw)
	require.Len(t, f.Array, 1)
	assert.Equal(t, "PING", string(f.Array[0].Bulk))
}

func TestReadFrameEndOfStream(t *testing.T) {
	client, server := pipe(t)
	c := New(server)

	client.Close()
	_, _, err := c.ReadFrame()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestWriteFrameRoundTrip(t *testing.T) {
	client, server := pipe(t)
	c := New(server)

	go func() {
		c.WriteFrame(codec.Simple("PONG"))
	}()

	clientSide := New(client)
	f, _, err := clientSide.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, codec.Simple("PONG"), f)
}
