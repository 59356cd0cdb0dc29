package xp3

import (
	"encoding/binary"
	"io"
	"unicode"
	"unicode/utf16"

	e "github.com/pkg/errors"
)

// byteReader wraps a seekable byte source with the fixed-width
// little-endian reads the wire format needs. It never returns a short
// read: readExact loops internally and reports ErrTruncated on
// end-of-stream.
type byteReader struct {
	r io.ReadSeeker
}

func newByteReader(r io.ReadSeeker) *byteReader {
	return &byteReader{r: r}
}

// readExact returns exactly n bytes or ErrTruncated.
func (b *byteReader) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, e.Wrap(ErrTruncated, err.Error())
	}
	return buf, nil
}

func (b *byteReader) readU8() (uint8, error) {
	buf, err := b.readExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *byteReader) readU16() (uint16, error) {
	buf, err := b.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (b *byteReader) readU32() (uint32, error) {
	buf, err := b.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (b *byteReader) readU64() (uint64, error) {
	buf, err := b.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// readUTF16LE reads codeUnits UTF-16LE code units and decodes them. An
// unpaired surrogate is reported as invalid data rather than silently
// replaced.
func (b *byteReader) readUTF16LE(codeUnits int) (string, error) {
	buf, err := b.readExact(codeUnits * 2)
	if err != nil {
		return "", err
	}

	units := make([]uint16, codeUnits)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}

	runes := utf16.Decode(units)
	// utf16.Decode silently substitutes the replacement character for
	// unpaired surrogates instead of failing; detect that explicitly so
	// malformed names are reported rather than papered over.
	for i := 0; i < len(units); i++ {
		if !utf16.IsSurrogate(rune(units[i])) {
			continue
		}
		if i+1 < len(units) && utf16.DecodeRune(rune(units[i]), rune(units[i+1])) != unicode.ReplacementChar {
			i++ // skip the low half of a valid pair
			continue
		}
		return "", e.Errorf("xp3: invalid UTF-16 name data at code unit %d", i)
	}

	return string(runes), nil
}

// seek whence values, mirroring io.Seeker's but named for readability at
// call sites.
const (
	seekFromStart   = io.SeekStart
	seekFromCurrent = io.SeekCurrent
	seekFromEnd     = io.SeekEnd
)

func (b *byteReader) seek(whence int, delta int64) (int64, error) {
	return b.r.Seek(delta, whence)
}

func (b *byteReader) pos() (int64, error) {
	return b.r.Seek(0, io.SeekCurrent)
}

// length returns the total size of the stream, restoring the current
// position afterwards.
func (b *byteReader) length() (int64, error) {
	cur, err := b.pos()
	if err != nil {
		return 0, err
	}

	end, err := b.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	if _, err := b.r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}

	return end, nil
}
