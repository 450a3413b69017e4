package aol

import (
	"errors"
	"os"

	"github.com/cc-kvstore/kvstored/internal/codec"
	"github.com/cc-kvstore/kvstored/pkg/log"
)

// Replay reads the AOL file at path and invokes apply once per decoded
// frame, in file order, bypassing the AOL write path and any client
// response (§4.6). A missing file is normal and is a no-op.
//
// Decode failures (a short trailing write, or a genuinely corrupt frame)
// truncate replay at the first bad frame under the torn-write assumption;
// this is expected behavior, not an error. Only an I/O failure reading the
// file itself is returned as an error, since §7 requires startup to abort
// on replay I/O errors.
func Replay(path string, apply func(frame codec.Frame) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	offset := 0
	count := 0
	for offset < len(data) {
		f, n, err := codec.Decode(data[offset:])
		if err != nil {
			log.Warnf("aol: replay stopped at offset %d after %d frame(s): %s (assumed torn write)", offset, count, err.Error())
			break
		}
		if err := apply(f); err != nil {
			log.Warnf("aol: replay of frame %d failed: %s", count, err.Error())
		}
		offset += n
		count++
	}

	log.Infof("aol: replayed %d frame(s) from %s", count, path)
	return nil
}
