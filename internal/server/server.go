// Package server runs the TCP accept loop and per-connection command
// loop: read a frame, parse it into a command, append mutating commands
// to the AOL, execute against the Keyspace/Hub, write the response, and
// (for SUBSCRIBE) fan delivered pub/sub messages back to the same
// connection (§2 data/control flow, §9 back-edge).
package server

import (
	"errors"
	"net"
	"reflect"
	"sync"

	"github.com/cc-kvstore/kvstored/internal/aol"
	"github.com/cc-kvstore/kvstored/internal/codec"
	"github.com/cc-kvstore/kvstored/internal/command"
	"github.com/cc-kvstore/kvstored/internal/connio"
	"github.com/cc-kvstore/kvstored/internal/natsbridge"
	"github.com/cc-kvstore/kvstored/internal/pubsub"
	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Server owns the listener and the shared Dispatcher/AOL handed to every
// connection task.
type Server struct {
	ln         net.Listener
	dispatcher *command.Dispatcher
	aolLog     *aol.Log
	bridge     *natsbridge.Bridge

	wg sync.WaitGroup
}

// New wraps ln for accepting client connections. aolLog and bridge may be
// nil (durability and the NATS bridge are both optional).
func New(ln net.Listener, dispatcher *command.Dispatcher, aolLog *aol.Log, bridge *natsbridge.Bridge) *Server {
	return &Server{ln: ln, dispatcher: dispatcher, aolLog: aolLog, bridge: bridge}
}

// Serve accepts connections until the listener is closed (the expected
// shutdown signal: cooperative shutdown closes ln to stop acceptance
// without forcing in-flight commands to abort, §5).
func (s *Server) Serve() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warnf("server: accept failed: %s", err.Error())
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("server: connection %s task panicked: %v", nc.RemoteAddr(), r)
				}
			}()
			s.handleConn(nc)
		}()
	}
}

// Wait blocks until every in-flight connection task has exited (for
// cooperative shutdown draining, §5).
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleConn(nc net.Conn) {
	conn := connio.New(nc)
	defer conn.Close()

	var subs []*pubsub.Subscription
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	for {
		req, raw, err := conn.ReadFrame()
		if err != nil {
			if !errors.Is(err, connio.ErrEndOfStream) {
				log.Infof("server: connection %s closed: %s", nc.RemoteAddr(), err.Error())
			}
			return
		}

		if !s.dispatchOne(conn, nc, req, raw, &subs) {
			return
		}

		if len(subs) > 0 && !s.pumpSubscriptions(conn, nc, &subs) {
			return
		}
	}
}

// dispatchOne parses and executes one request frame already read from
// conn, writes its response, and appends any new subscriptions to subs.
// Returns false if the connection should be closed.
func (s *Server) dispatchOne(conn *connio.Conn, nc net.Conn, req codec.Frame, raw []byte, subs *[]*pubsub.Subscription) bool {
	cmd, perr := command.Parse(req)
	if perr != nil {
		log.Warnf("server: connection %s sent a malformed request: %s", nc.RemoteAddr(), perr.Error())
		return false
	}

	if cmd.IsMutating() && s.aolLog != nil {
		aol.WarnOnAppendError(s.aolLog.Append(raw))
	}

	result := s.dispatcher.Execute(cmd)

	if cmd.Name == "PUBLISH" && s.bridge != nil && len(cmd.Args) == 2 {
		s.bridge.Forward(string(cmd.Args[0]), cmd.Args[1])
	}

	if err := conn.WriteFrame(result.Response); err != nil {
		log.Infof("server: connection %s write failed: %s", nc.RemoteAddr(), err.Error())
		return false
	}

	*subs = append(*subs, result.Subscriptions...)
	return true
}

// pumpSubscriptions is the back-edge a subscribed connection task takes:
// it must read from two kinds of sources at once, the client socket (for
// further commands) and every live subscription's delivery channel (§9).
// A dynamic reflect.Select covers an arbitrary number of subscriptions;
// the socket read runs on its own goroutine feeding a channel so it can
// be selected alongside them uniformly.
func (s *Server) pumpSubscriptions(conn *connio.Conn, nc net.Conn, subs *[]*pubsub.Subscription) bool {
	type socketResult struct {
		req codec.Frame
		raw []byte
		err error
	}
	socketCh := make(chan socketResult, 1)
	readNext := func() {
		req, raw, err := conn.ReadFrame()
		socketCh <- socketResult{req, raw, err}
	}
	go readNext()

	for len(*subs) > 0 {
		cases := make([]reflect.SelectCase, 0, len(*subs)+1)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(socketCh)})
		for _, sub := range *subs {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(sub.C())})
		}

		chosen, value, ok := reflect.Select(cases)
		if chosen == 0 {
			sr := value.Interface().(socketResult)
			if sr.err != nil {
				if !errors.Is(sr.err, connio.ErrEndOfStream) {
					log.Infof("server: subscribed connection %s closed: %s", nc.RemoteAddr(), sr.err.Error())
				}
				return false
			}
			if !s.dispatchOne(conn, nc, sr.req, sr.raw, subs) {
				return false
			}
			go readNext()
			continue
		}

		subIdx := chosen - 1
		if !ok {
			*subs = append((*subs)[:subIdx:subIdx], (*subs)[subIdx+1:]...)
			continue
		}
		msg := value.Interface().(pubsub.Message)
		if msg.Lagged > 0 {
			if err := conn.WriteFrame(deliveryFrame(msg)); err != nil {
				return false
			}
			msg.Lagged = 0
		}
		if err := conn.WriteFrame(deliveryFrame(msg)); err != nil {
			return false
		}
	}

	// No subscriptions left: fall back to the plain request/response loop
	// by feeding the in-flight socket read back through the caller.
	sr := <-socketCh
	if sr.err != nil {
		if !errors.Is(sr.err, connio.ErrEndOfStream) {
			log.Infof("server: connection %s closed: %s", nc.RemoteAddr(), sr.err.Error())
		}
		return false
	}
	return s.dispatchOne(conn, nc, sr.req, sr.raw, subs)
}

func deliveryFrame(m pubsub.Message) codec.Frame {
	if m.Lagged > 0 {
		return codec.Array([]codec.Frame{
			codec.BulkString("lagged"),
			codec.BulkString(m.Channel),
			codec.Int(int64(m.Lagged)),
		})
	}
	return codec.Array([]codec.Frame{
		codec.BulkString("message"),
		codec.BulkString(m.Channel),
		codec.Bulk(m.Payload),
	})
}
