package xp3

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	e "github.com/pkg/errors"
)

// inflate decompresses a zlib stream, returning exactly wantSize bytes or
// ErrInflate.
func inflate(compressed []byte, wantSize int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, e.Wrap(ErrInflate, err.Error())
	}
	defer zr.Close()

	out := make([]byte, wantSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, e.Wrapf(ErrInflate, "expected %d bytes: %s", wantSize, err.Error())
	}

	// A stream that still has trailing data beyond wantSize is fine:
	// the extra bytes, if any, are simply unread and discarded with zr.
	return out, nil
}
