// Package natsbridge fire-and-forget forwards PUBLISH traffic to an
// external NATS subject, entirely outside the Keyspace/Pub-Sub Hub
// contract: it never affects delivered_count and a forwarding failure
// never surfaces to the client (§2 domain stack enrichment).
package natsbridge

import (
	"github.com/nats-io/nats.go"

	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Bridge forwards published channel messages to a NATS server. A nil
// *Bridge is valid and a no-op, so callers can construct one
// unconditionally and skip it when unconfigured.
type Bridge struct {
	nc            *nats.Conn
	subjectPrefix string
}

// Dial connects to the NATS server at url. Messages are forwarded to
// subjectPrefix+channel.
func Dial(url, subjectPrefix string) (*Bridge, error) {
	nc, err := nats.Connect(url, nats.Name("kvstored"))
	if err != nil {
		return nil, err
	}
	return &Bridge{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// Forward publishes payload to the NATS subject for channel. It never
// blocks the caller on a slow or unreachable NATS server beyond the
// client library's own async publish, and any error is only logged.
func (b *Bridge) Forward(channel string, payload []byte) {
	if b == nil || b.nc == nil {
		return
	}
	if err := b.nc.Publish(b.subjectPrefix+channel, payload); err != nil {
		log.Warnf("natsbridge: forward to %q failed: %s", channel, err.Error())
	}
}

// Close closes the NATS connection. Safe to call on a nil
// Bridge.
func (b *Bridge) Close() {
	if b == nil || b.nc == nil {
		return
	}
	b.nc.Close()
}
