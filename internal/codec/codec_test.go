package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []Frame{
		Simple("PONG"),
		Err("ERR unknown command 'FOO'"),
		Int(42),
		Int(-1),
		BulkString("hello"),
		Bulk([]byte{}),
		Null(),
		Array([]Frame{BulkString("SET"), BulkString("foo"), BulkString("bar")}),
		Array([]Frame{Int(1), Array([]Frame{Int(2), Int(3)})}),
	}

	for _, f := range cases {
		t.Run(f.String(), func(t *testing.T) {
			wire := Encode(f)
			got, n, err := Decode(wire)
			require.NoError(t, err)
			assert.Equal(t, len(wire), n)
			assert.Equal(t, f, got)
		})
	}
}

func TestIncrementalDecode(t *testing.T) {
	t.Run("fed one byte at a time yields no Invalid results", func(t *testing.T) {
		want := []Frame{
			Array([]Frame{BulkString("PING")}),
			Simple("OK"),
			Int(7),
		}
		var wire []byte
		for _, f := range want {
			wire = append(wire, Encode(f)...)
		}

		var got []Frame
		buf := make([]byte, 0, len(wire))
		for _, b := range wire {
			buf = append(buf, b)
			for {
				f, n, err := Decode(buf)
				if err == ErrIncomplete {
					break
				}
				require.NoError(t, err)
				got = append(got, f)
				buf = buf[n:]
			}
		}
		assert.Equal(t, want, got)
		assert.Empty(t, buf)
	})
}

func TestDecodeIncompleteLeavesBufferUntouched(t *testing.T) {
	full := Encode(BulkString("hello world"))
	for i := 0; i < len(full)-1; i++ {
		partial := append([]byte(nil), full[:i]...)
		_, n, err := Decode(partial)
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Zero(t, n)
	}
}

func TestDecodeNullArray(t *testing.T) {
	f, n, err := Decode([]byte("*-1\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.True(t, f.IsNull())
}

func TestDecodeRejectsLoneLF(t *testing.T) {
	_, _, err := Decode([]byte("+OK\n"))
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestDecodeRejectsBadBulkLength(t *testing.T) {
	_, _, err := Decode([]byte("$-2\r\n"))
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestDecodeRejectsNestingBeyondLimit(t *testing.T) {
	wire := []byte{}
	for i := 0; i < MaxNesting+2; i++ {
		wire = append(wire, []byte("*1\r\n")...)
	}
	wire = append(wire, []byte(":1\r\n")...)
	_, _, err := Decode(wire)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestDecodeArrayOfBulks(t *testing.T) {
	wire := []byte("*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	f, n, err := Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, len(wire), n)
	require.Len(t, f.Array, 2)
	assert.Equal(t, "foo", string(f.Array[0].Bulk))
	assert.Equal(t, "bar", string(f.Array[1].Bulk))
}
