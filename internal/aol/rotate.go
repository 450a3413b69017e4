package aol

import (
	"fmt"
	"os"
)

// Rotate closes the current segment, renames it to path+"."+suffix, and
// opens a fresh segment at the original path. It returns the rotated
// segment's new path and size so the caller can hand it to the archive
// backend and/or record it in the ledger (§4.6 enrichment).
//
// Replay only ever reads the live segment at path; rotated segments are
// cold backups and are never replayed (§4.6).
func (l *Log) Rotate(path, suffix string) (rotatedPath string, size int64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.f.Sync(); err != nil {
		return "", 0, fmt.Errorf("aol: sync before rotate: %w", err)
	}
	if err := l.f.Close(); err != nil {
		return "", 0, fmt.Errorf("aol: close before rotate: %w", err)
	}

	rotatedPath = fmt.Sprintf("%s.%s", path, suffix)
	if err := os.Rename(path, rotatedPath); err != nil {
		return "", 0, fmt.Errorf("aol: renaming segment: %w", err)
	}

	info, err := os.Stat(rotatedPath)
	if err != nil {
		return "", 0, fmt.Errorf("aol: stat rotated segment: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("aol: opening fresh segment: %w", err)
	}
	l.f = f

	return rotatedPath, info.Size(), nil
}
