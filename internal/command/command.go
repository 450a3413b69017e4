// Package command translates decoded request frames into typed commands,
// dispatches them against the keyspace and pub/sub hub, and formats
// response frames (§4.5).
package command

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/cc-kvstore/kvstored/internal/codec"
)

// ErrMalformedRequest is returned by Parse when the request frame is not
// shaped as an Array of Bulk/Simple frames. This is a protocol-level
// failure (§7 category 1): the connection must be closed, not answered
// with an Error frame.
var ErrMalformedRequest = errors.New("command: request is not an array of bulk/simple frames")

// Command is a parsed request: an upper-cased command name plus its
// argument bytes, exactly as received.
type Command struct {
	Name    string // upper-cased, for dispatch
	RawName string // as sent, for error messages
	Args    [][]byte
}

// Parse converts a decoded request Frame into a Command. Any shape other
// than a non-empty Array of Bulk/Simple frames is ErrMalformedRequest.
func Parse(req codec.Frame) (Command, error) {
	if req.Kind != codec.KindArray || req.IsNullArray || len(req.Array) == 0 {
		return Command{}, ErrMalformedRequest
	}

	parts := make([][]byte, 0, len(req.Array))
	for _, f := range req.Array {
		b, ok := frameBytes(f)
		if !ok {
			return Command{}, ErrMalformedRequest
		}
		parts = append(parts, b)
	}

	return Command{
		Name:    upperASCII(string(parts[0])),
		RawName: string(parts[0]),
		Args:    parts[1:],
	}, nil
}

func frameBytes(f codec.Frame) ([]byte, bool) {
	switch f.Kind {
	case codec.KindBulk:
		if f.IsNullBulk {
			return nil, false
		}
		return f.Bulk, true
	case codec.KindSimple:
		return []byte(f.Str), true
	default:
		return nil, false
	}
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// mutatingCommands is the fixed set that drives AOL logging and replay
// (§4.5). SUBSCRIBE/PUBLISH/INFO never touch the Keyspace and are excluded.
var mutatingCommands = map[string]bool{
	"SET": true, "DEL": true, "FLUSHDB": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true,
	"SADD": true, "SREM": true,
	"HSET": true, "HDEL": true,
}

// IsMutating reports whether cmd can alter Keyspace contents.
func (c Command) IsMutating() bool {
	return mutatingCommands[c.Name]
}

func arityErr(name string) codec.Frame {
	return codec.Err("ERR wrong number of arguments for '" + lowerASCII(name) + "' command")
}

func notIntErr() codec.Frame {
	return codec.Err("ERR value is not an integer or out of range")
}

func syntaxErr(near string) codec.Frame {
	if near == "" {
		return codec.Err("ERR syntax error")
	}
	return codec.Err("ERR syntax error near '" + near + "'")
}

func unknownCommandErr(raw string) codec.Frame {
	return codec.Err("ERR unknown command '" + raw + "'")
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

func bulkArray(items [][]byte) codec.Frame {
	out := make([]codec.Frame, len(items))
	for i, it := range items {
		out[i] = codec.Bulk(it)
	}
	return codec.Array(out)
}

func stringArray(items []string) codec.Frame {
	out := make([]codec.Frame, len(items))
	for i, it := range items {
		out[i] = codec.BulkString(it)
	}
	return codec.Array(out)
}

func boolInt(b bool) codec.Frame {
	if b {
		return codec.Int(1)
	}
	return codec.Int(0)
}

func equalFoldASCII(a, b string) bool {
	return bytes.EqualFold([]byte(a), []byte(b))
}
