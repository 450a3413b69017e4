package command

import (
	"strconv"
	"time"

	"github.com/cc-kvstore/kvstored/internal/codec"
	"github.com/cc-kvstore/kvstored/internal/keyspace"
	"github.com/cc-kvstore/kvstored/internal/pubsub"
)

// Dispatcher executes parsed Commands against a Keyspace Store and a
// Pub/Sub Hub, and formats the response Frame for each (§4.5).
type Dispatcher struct {
	Store *keyspace.Store
	Hub   *pubsub.Hub

	startedAt time.Time
}

// NewDispatcher returns a Dispatcher wired to store and hub.
func NewDispatcher(store *keyspace.Store, hub *pubsub.Hub) *Dispatcher {
	return &Dispatcher{Store: store, Hub: hub, startedAt: time.Now()}
}

// Result is the outcome of executing one Command: the response frame to
// write back, plus (for SUBSCRIBE only) the subscriptions the connection
// task must now also read from alongside the client socket (§9 back-edge).
type Result struct {
	Response      codec.Frame
	Subscriptions []*pubsub.Subscription
}

// Execute runs cmd and returns its Result. It never returns a Go error:
// command-shape errors surface as an Error frame in Response, and type
// errors as the lenient absent/0 value, per §7 category 2/3 (neither
// closes the connection).
func (d *Dispatcher) Execute(cmd Command) Result {
	switch cmd.Name {
	case "PING":
		return frame(d.ping(cmd))
	case "ECHO":
		return frame(d.echo(cmd))
	case "SET":
		return frame(d.set(cmd))
	case "GET":
		return frame(d.get(cmd))
	case "DEL":
		return frame(d.del(cmd))
	case "EXISTS":
		return frame(d.exists(cmd))
	case "TYPE":
		return frame(d.typ(cmd))
	case "DBSIZE":
		return frame(d.dbsize(cmd))
	case "FLUSHDB":
		return frame(d.flushdb(cmd))
	case "KEYS":
		return frame(d.keys(cmd))
	case "LPUSH":
		return frame(d.push(cmd, true))
	case "RPUSH":
		return frame(d.push(cmd, false))
	case "LPOP":
		return frame(d.pop(cmd, true))
	case "RPOP":
		return frame(d.pop(cmd, false))
	case "LRANGE":
		return frame(d.lrange(cmd))
	case "LLEN":
		return frame(d.llen(cmd))
	case "SADD":
		return frame(d.sadd(cmd))
	case "SREM":
		return frame(d.srem(cmd))
	case "SMEMBERS":
		return frame(d.smembers(cmd))
	case "SISMEMBER":
		return frame(d.sismember(cmd))
	case "SCARD":
		return frame(d.scard(cmd))
	case "HSET":
		return frame(d.hset(cmd))
	case "HGET":
		return frame(d.hget(cmd))
	case "HGETALL":
		return frame(d.hgetall(cmd))
	case "HDEL":
		return frame(d.hdel(cmd))
	case "HEXISTS":
		return frame(d.hexists(cmd))
	case "HLEN":
		return frame(d.hlen(cmd))
	case "PUBLISH":
		return frame(d.publish(cmd))
	case "SUBSCRIBE":
		return d.subscribe(cmd)
	case "INFO":
		return frame(d.info(cmd))
	default:
		return frame(unknownCommandErr(cmd.RawName))
	}
}

func frame(f codec.Frame) Result { return Result{Response: f} }

func (d *Dispatcher) ping(cmd Command) codec.Frame {
	switch len(cmd.Args) {
	case 0:
		return codec.Simple("PONG")
	case 1:
		return codec.Bulk(cmd.Args[0])
	default:
		return arityErr(cmd.Name)
	}
}

func (d *Dispatcher) echo(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return codec.Bulk(cmd.Args[0])
}

func (d *Dispatcher) set(cmd Command) codec.Frame {
	if len(cmd.Args) < 2 {
		return arityErr(cmd.Name)
	}
	key, val := string(cmd.Args[0]), cmd.Args[1]

	var ttl time.Duration
	switch len(cmd.Args) {
	case 2:
		// no TTL
	case 4:
		if !equalFoldASCII(string(cmd.Args[2]), "EX") {
			return syntaxErr(string(cmd.Args[2]))
		}
		secs, ok := parseInt64(cmd.Args[3])
		if !ok {
			return notIntErr()
		}
		ttl = time.Duration(secs) * time.Second
	default:
		near := ""
		if len(cmd.Args) > 2 {
			near = string(cmd.Args[2])
		}
		return syntaxErr(near)
	}

	d.Store.Set(key, val, ttl)
	return codec.Simple("OK")
}

func (d *Dispatcher) get(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	v, ok := d.Store.Get(string(cmd.Args[0]))
	if !ok {
		return codec.Bulk(nil)
	}
	return codec.Bulk(v)
}

func (d *Dispatcher) del(cmd Command) codec.Frame {
	if len(cmd.Args) < 1 {
		return arityErr(cmd.Name)
	}
	keys := make([]string, len(cmd.Args))
	for i, a := range cmd.Args {
		keys[i] = string(a)
	}
	return codec.Int(int64(d.Store.Del(keys...)))
}

func (d *Dispatcher) exists(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return boolInt(d.Store.Exists(string(cmd.Args[0])))
}

func (d *Dispatcher) typ(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return codec.Simple(d.Store.Type(string(cmd.Args[0])).String())
}

func (d *Dispatcher) dbsize(cmd Command) codec.Frame {
	if len(cmd.Args) != 0 {
		return arityErr(cmd.Name)
	}
	return codec.Int(int64(d.Store.DBSize()))
}

func (d *Dispatcher) flushdb(cmd Command) codec.Frame {
	if len(cmd.Args) != 0 {
		return arityErr(cmd.Name)
	}
	d.Store.FlushDB()
	return codec.Simple("OK")
}

func (d *Dispatcher) keys(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return stringArray(d.Store.Keys(string(cmd.Args[0])))
}

func (d *Dispatcher) push(cmd Command, head bool) codec.Frame {
	if len(cmd.Args) < 2 {
		return arityErr(cmd.Name)
	}
	key := string(cmd.Args[0])
	var n int
	var wrongType bool
	if head {
		n, wrongType = d.Store.LPush(key, cmd.Args[1:]...)
	} else {
		n, wrongType = d.Store.RPush(key, cmd.Args[1:]...)
	}
	if wrongType {
		return codec.Int(0)
	}
	return codec.Int(int64(n))
}

func (d *Dispatcher) pop(cmd Command, head bool) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	key := string(cmd.Args[0])
	var v []byte
	var ok bool
	if head {
		v, ok = d.Store.LPop(key)
	} else {
		v, ok = d.Store.RPop(key)
	}
	if !ok {
		return codec.Bulk(nil)
	}
	return codec.Bulk(v)
}

func (d *Dispatcher) lrange(cmd Command) codec.Frame {
	if len(cmd.Args) != 3 {
		return arityErr(cmd.Name)
	}
	start, ok := parseInt64(cmd.Args[1])
	if !ok {
		return notIntErr()
	}
	stop, ok := parseInt64(cmd.Args[2])
	if !ok {
		return notIntErr()
	}
	return bulkArray(d.Store.LRange(string(cmd.Args[0]), start, stop))
}

func (d *Dispatcher) llen(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return codec.Int(int64(d.Store.LLen(string(cmd.Args[0]))))
}

func (d *Dispatcher) sadd(cmd Command) codec.Frame {
	if len(cmd.Args) < 2 {
		return arityErr(cmd.Name)
	}
	n, wrongType := d.Store.SAdd(string(cmd.Args[0]), toStrings(cmd.Args[1:])...)
	if wrongType {
		return codec.Int(0)
	}
	return codec.Int(int64(n))
}

func (d *Dispatcher) srem(cmd Command) codec.Frame {
	if len(cmd.Args) < 2 {
		return arityErr(cmd.Name)
	}
	n, wrongType := d.Store.SRem(string(cmd.Args[0]), toStrings(cmd.Args[1:])...)
	if wrongType {
		return codec.Int(0)
	}
	return codec.Int(int64(n))
}

func (d *Dispatcher) smembers(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return stringArray(d.Store.SMembers(string(cmd.Args[0])))
}

func (d *Dispatcher) sismember(cmd Command) codec.Frame {
	if len(cmd.Args) != 2 {
		return arityErr(cmd.Name)
	}
	return boolInt(d.Store.SIsMember(string(cmd.Args[0]), string(cmd.Args[1])))
}

func (d *Dispatcher) scard(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return codec.Int(int64(d.Store.SCard(string(cmd.Args[0]))))
}

func (d *Dispatcher) hset(cmd Command) codec.Frame {
	if len(cmd.Args) != 3 {
		return arityErr(cmd.Name)
	}
	created, wrongType := d.Store.HSet(string(cmd.Args[0]), string(cmd.Args[1]), cmd.Args[2])
	if wrongType {
		return codec.Int(0)
	}
	return boolInt(created)
}

func (d *Dispatcher) hget(cmd Command) codec.Frame {
	if len(cmd.Args) != 2 {
		return arityErr(cmd.Name)
	}
	v, ok := d.Store.HGet(string(cmd.Args[0]), string(cmd.Args[1]))
	if !ok {
		return codec.Bulk(nil)
	}
	return codec.Bulk(v)
}

func (d *Dispatcher) hgetall(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	pairs := d.Store.HGetAll(string(cmd.Args[0]))
	flat := make([]codec.Frame, 0, len(pairs)*2)
	for _, p := range pairs {
		flat = append(flat, codec.BulkString(p.Field), codec.Bulk(p.Value))
	}
	return codec.Array(flat)
}

func (d *Dispatcher) hdel(cmd Command) codec.Frame {
	if len(cmd.Args) < 2 {
		return arityErr(cmd.Name)
	}
	n, wrongType := d.Store.HDel(string(cmd.Args[0]), toStrings(cmd.Args[1:])...)
	if wrongType {
		return codec.Int(0)
	}
	return codec.Int(int64(n))
}

func (d *Dispatcher) hexists(cmd Command) codec.Frame {
	if len(cmd.Args) != 2 {
		return arityErr(cmd.Name)
	}
	return boolInt(d.Store.HExists(string(cmd.Args[0]), string(cmd.Args[1])))
}

func (d *Dispatcher) hlen(cmd Command) codec.Frame {
	if len(cmd.Args) != 1 {
		return arityErr(cmd.Name)
	}
	return codec.Int(int64(d.Store.HLen(string(cmd.Args[0]))))
}

func (d *Dispatcher) publish(cmd Command) codec.Frame {
	if len(cmd.Args) != 2 {
		return arityErr(cmd.Name)
	}
	n := d.Hub.Publish(string(cmd.Args[0]), cmd.Args[1])
	return codec.Int(int64(n))
}

func (d *Dispatcher) subscribe(cmd Command) Result {
	if len(cmd.Args) < 1 {
		return frame(arityErr(cmd.Name))
	}
	subs := make([]*pubsub.Subscription, 0, len(cmd.Args))
	acks := make([]codec.Frame, 0, len(cmd.Args))
	for i, a := range cmd.Args {
		ch := string(a)
		sub := d.Hub.Subscribe(ch)
		subs = append(subs, sub)
		acks = append(acks, codec.Array([]codec.Frame{
			codec.BulkString("subscribe"),
			codec.BulkString(ch),
			codec.Int(int64(i + 1)),
		}))
	}
	// One ack per channel, in argument order, all carried in a single
	// Array response frame.
	return Result{Response: codec.Array(acks), Subscriptions: subs}
}

func (d *Dispatcher) info(cmd Command) codec.Frame {
	if len(cmd.Args) != 0 {
		return arityErr(cmd.Name)
	}
	uptime := time.Since(d.startedAt).Truncate(time.Second)
	text := "# Server\r\n" +
		"uptime_seconds:" + formatInt(int64(uptime.Seconds())) + "\r\n" +
		"# Keyspace\r\n" +
		"db0:keys=" + formatInt(int64(d.Store.DBSize())) + "\r\n"
	return codec.BulkString(text)
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
