package xp3

import e "github.com/pkg/errors"

// Fatal error categories from the wire-format parse. A missing magic is
// deliberately not one of these: it is reported by returning an empty
// result with a nil error, not by an error value.
var (
	// ErrTruncated is returned when the input ends in the middle of a
	// header, a chunk header, or a declared chunk body.
	ErrTruncated = e.New("xp3: truncated input")

	// ErrBadEntryFlag is returned when an index entry's flag byte has
	// low three bits that are neither 0 (raw) nor 1 (zlib).
	ErrBadEntryFlag = e.New("xp3: bad index entry flag")

	// ErrBadSegmentFlag is returned when a segm record's flags have low
	// three bits that are neither 0 (raw) nor 1 (zlib).
	ErrBadSegmentFlag = e.New("xp3: bad segment flag")

	// ErrNestedFile is returned when a File chunk is found nested
	// inside another File chunk.
	ErrNestedFile = e.New("xp3: nested File chunk")

	// ErrInflate is returned when zlib decompression of a compressed
	// index or segment fails, or yields fewer bytes than declared.
	ErrInflate = e.New("xp3: inflate failed")

	// ErrBadIndex names an index buffer that cannot be parsed at all. No
	// code path in this package returns it.
	ErrBadIndex = e.New("xp3: malformed index")
)

// oversizedChunkWarning is not a sentinel error: an oversized chunk is
// recoverable at the index-scan level. It never leaves this package as an
// error value; it is reported through DiagSink and handled by stopping
// the current index scan early.
const oversizedChunkWarning = "xp3: chunk declares size > 2^32-1, abandoning rest of index"
