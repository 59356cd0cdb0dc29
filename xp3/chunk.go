package xp3

import (
	"bytes"
)

const (
	protectedFlagMask = 1 << 31
	segmentRecordSize = 28

	tagFile = "File"
	tagInfo = "info"
	tagSegm = "segm"
	tagAdlr = "adlr"
)

// chunk is a tagged variant of the four recognized chunks. The body is the
// raw bytes between the chunk's size field and its end.
type chunk struct {
	tag  string
	body []byte
}

// nextChunk reads one "4 tag bytes, u64 size, size bytes body" chunk from
// r. Returns ok=false when r is exhausted (a clean end of the enclosing
// buffer) rather than an error, since running out of chunks is a normal
// stop condition in every context that calls this.
func nextChunk(r *byteReader) (chunk, bool, error) {
	tagBuf, err := r.readExact(4)
	if err != nil {
		return chunk{}, false, nil
	}

	size, err := r.readU64()
	if err != nil {
		return chunk{}, false, err
	}

	if size > maxChunkSize {
		return chunk{}, false, ErrOversizedChunk(size)
	}

	body, err := r.readExact(int(size))
	if err != nil {
		return chunk{}, false, err
	}

	return chunk{tag: string(tagBuf), body: body}, true, nil
}

// oversizedChunkError is a distinguishable error (not a package-level
// sentinel, since it carries the offending size) signalling a recoverable
// condition: stop scanning the current index, keep whatever was already
// collected.
type oversizedChunkError struct{ size uint64 }

func (e *oversizedChunkError) Error() string {
	return "xp3: chunk size exceeds 2^32-1"
}

// ErrOversizedChunk constructs the error for a chunk declaring the given size.
func ErrOversizedChunk(size uint64) error {
	return &oversizedChunkError{size: size}
}

func isOversizedChunk(err error) bool {
	_, ok := err.(*oversizedChunkError)
	return ok
}

// parseTopLevel scans an index body for File chunks, parsing each into an
// Item. If a chunk declares an oversized size, scanning stops and whatever
// items were already collected are returned along with a warning.
func parseTopLevel(body []byte, archiveBase int64, diag DiagSink) []Item {
	r := newByteReader(bytes.NewReader(body))

	var items []Item
	for {
		c, ok, err := nextChunk(r)
		if err != nil {
			if isOversizedChunk(err) {
				warnf(diag, oversizedChunkWarning)
			}
			return items
		}
		if !ok {
			return items
		}

		if c.tag != tagFile {
			// Only File chunks are meaningful at the top level; anything
			// else silently ends the scan for this index.
			return items
		}

		item, ok, err := parseItem(c.body, archiveBase, diag)
		if err != nil {
			if isOversizedChunk(err) {
				warnf(diag, oversizedChunkWarning)
			}
			return items
		}
		if ok {
			items = append(items, item)
		}
	}
}

// parseItem decodes the sub-chunk scan inside one File chunk body.
// Returns ok=false (no error) when a required sub-chunk is missing — the
// item is skipped with a warning and parsing of later items continues
// normally.
func parseItem(body []byte, archiveBase int64, diag DiagSink) (Item, bool, error) {
	r := newByteReader(bytes.NewReader(body))

	var (
		item     Item
		haveInfo bool
		haveSegm bool
		haveAdlr bool
	)

	// Up to three sub-chunks, in any order.
	for i := 0; i < 3; i++ {
		c, ok, err := nextChunk(r)
		if err != nil {
			return Item{}, false, err
		}
		if !ok {
			break
		}

		switch c.tag {
		case tagFile:
			return Item{}, false, ErrNestedFile
		case tagInfo:
			if err := parseInfo(c.body, &item, diag); err != nil {
				return Item{}, false, err
			}
			haveInfo = true
		case tagSegm:
			segs, err := parseSegments(c.body, archiveBase)
			if err != nil {
				return Item{}, false, err
			}
			item.Segments = segs
			haveSegm = true
		case tagAdlr:
			if len(c.body) < 4 {
				break
			}
			item.FileHash = leUint32(c.body)
			haveAdlr = true
		default:
			// Unknown tag terminates the scan for this item; the
			// accumulated item is still emitted below.
			i = 3
		}
	}

	if !haveInfo || !haveSegm || !haveAdlr {
		warnf(diag, "xp3: item %q missing a required sub-chunk (info=%v segm=%v adlr=%v), skipping",
			item.Name, haveInfo, haveSegm, haveAdlr)
		return Item{}, false, nil
	}

	return item, true, nil
}

func parseInfo(body []byte, item *Item, diag DiagSink) error {
	r := newByteReader(bytes.NewReader(body))

	flags, err := r.readU32()
	if err != nil {
		return err
	}
	if flags&protectedFlagMask != 0 {
		warnf(diag, "xp3: item is marked protected, proceeding anyway")
	}

	originalSize, err := r.readU64()
	if err != nil {
		return err
	}
	archiveSize, err := r.readU64()
	if err != nil {
		return err
	}

	nameLen, err := r.readU16()
	if err != nil {
		return err
	}
	name, err := r.readUTF16LE(int(nameLen))
	if err != nil {
		return err
	}

	item.OriginalSize = originalSize
	item.ArchiveSize = archiveSize
	item.Name = shortenName(name)
	return nil
}

func parseSegments(body []byte, archiveBase int64) ([]Segment, error) {
	// Any trailing bytes that don't make up a full 28-byte record are
	// ignored rather than treated as a fatal malformation.
	count := len(body) / segmentRecordSize
	segments := make([]Segment, 0, count)

	var runningOffset uint64
	for i := 0; i < count; i++ {
		rec := body[i*segmentRecordSize : (i+1)*segmentRecordSize]
		r := newByteReader(bytes.NewReader(rec))

		flags, err := r.readU32()
		if err != nil {
			return nil, err
		}

		var compressed bool
		switch flags & entryFlagEncodingMask {
		case entryFlagZlib:
			compressed = true
		case entryFlagRaw:
			compressed = false
		default:
			return nil, ErrBadSegmentFlag
		}

		start, err := r.readU64()
		if err != nil {
			return nil, err
		}
		originalSize, err := r.readU64()
		if err != nil {
			return nil, err
		}
		archiveSize, err := r.readU64()
		if err != nil {
			return nil, err
		}

		segments = append(segments, Segment{
			Start:        int64(start) + archiveBase,
			Offset:       int64(runningOffset),
			OriginalSize: originalSize,
			ArchiveSize:  archiveSize,
			Compressed:   compressed,
		})

		runningOffset += originalSize
	}

	// Already in ascending-offset order given the running-sum
	// assignment above, but sort defensively should a future wire
	// variant not guarantee record order.
	sortSegmentsByOffset(segments)
	return segments, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
