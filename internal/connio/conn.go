// Package connio wraps a client byte stream with a growable read buffer and
// a buffered writer, driving the frame codec one frame at a time.
//
// A Conn is owned by exactly one goroutine (the connection task) and must
// never be shared (§4.2).
package connio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/cc-kvstore/kvstored/internal/codec"
)

// ErrEndOfStream is returned by ReadFrame when the peer closed the
// connection cleanly between frames (zero bytes read, empty read buffer).
var ErrEndOfStream = errors.New("connio: end of stream")

const readChunkSize = 4096

// Conn owns a net.Conn, an unconsumed-bytes read buffer, and a buffered
// writer flushed once per response frame.
type Conn struct {
	nc   net.Conn
	rbuf []byte
	w    *bufio.Writer
}

// New wraps nc for frame-at-a-time I/O.
func New(nc net.Conn) *Conn {
	return &Conn{
		nc: nc,
		w:  bufio.NewWriter(nc),
	}
}

// RemoteAddr returns the peer address, for logging.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// ReadFrame blocks until exactly one frame has been decoded, the peer closed
// the stream cleanly (ErrEndOfStream), or an error occurred. It also returns
// the exact raw bytes the frame occupied on the wire, which the command
// layer needs byte-for-byte to append to the AOL (§4.6).
func (c *Conn) ReadFrame() (codec.Frame, []byte, error) {
	for {
		if len(c.rbuf) > 0 {
			f, n, err := codec.Decode(c.rbuf)
			switch {
			case err == nil:
				raw := append([]byte(nil), c.rbuf[:n]...)
				c.rbuf = c.rbuf[n:]
				return f, raw, nil
			case !errors.Is(err, codec.ErrIncomplete):
				return codec.Frame{}, nil, err
			}
			// Incomplete: fall through and read more bytes.
		}

		tmp := make([]byte, readChunkSize)
		n, err := c.nc.Read(tmp)
		if n > 0 {
			c.rbuf = append(c.rbuf, tmp[:n]...)
		}
		if err != nil {
			if n > 0 {
				// Bytes arrived alongside the error (e.g. EOF after the
				// final write); give the decoder one more chance before
				// surfacing the error.
				continue
			}
			if errors.Is(err, io.EOF) {
				if len(c.rbuf) == 0 {
					return codec.Frame{}, nil, ErrEndOfStream
				}
				return codec.Frame{}, nil, fmt.Errorf("connio: connection reset mid-frame: %w", io.ErrUnexpectedEOF)
			}
			return codec.Frame{}, nil, err
		}
	}
}

// WriteFrame serializes f and flushes it to the peer.
func (c *Conn) WriteFrame(f codec.Frame) error {
	var buf bytes.Buffer
	codec.EncodeTo(&buf, f)
	if _, err := c.w.Write(buf.Bytes()); err != nil {
		return err
	}
	return c.w.Flush()
}
