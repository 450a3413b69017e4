// Package aol implements the append-only log: durable, ordered storage of
// the raw request frames of every mutating command, and a startup replay
// path that rebuilds keyspace state from it (§4.6).
package aol

import (
	"os"
	"sync"

	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Log appends raw request frames to a file in acceptance order, serialized
// by its own mutex so concurrent connection tasks interleave at frame
// boundaries only (§5).
type Log struct {
	mu     sync.Mutex
	f      *os.File
	policy Policy
}

// Open opens (or creates) the AOL file at path in append mode. A missing
// file is normal and is simply created.
func Open(path string, policy Policy) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{f: f, policy: policy}, nil
}

// Append writes raw to the log and, under the Always policy, fsyncs
// before returning. Writes are serialized with an internal mutex (§4.6).
//
// A write failure is returned to the caller but, per the documented
// best-effort contract, does not prevent the command from executing; the
// caller is expected to log the error and continue (§7 category 4).
func (l *Log) Append(raw []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.f.Write(raw); err != nil {
		return err
	}
	if l.policy == Always {
		return l.f.Sync()
	}
	return nil
}

// Sync fsyncs the log file. Called by the background task under the
// EverySecond policy (§5).
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Sync()
}

// Close closes the underlying file. It does not fsync.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Policy reports the log's configured durability policy.
func (l *Log) Policy() Policy { return l.policy }

// WarnOnAppendError is the logging helper connection tasks call when
// Append fails, keeping the "logged, never escalated" contract in one
// place (§7 category 4).
func WarnOnAppendError(err error) {
	if err != nil {
		log.Warnf("aol: append failed, command still executed: %s", err.Error())
	}
}
