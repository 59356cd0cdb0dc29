package xp3

import "sort"

// Item is one logical file reconstructed from an XP3 archive.
type Item struct {
	// Name is the UTF-16-decoded path, separators preserved as stored.
	Name string

	// FileHash is the advisory 32-bit value from the adlr chunk. It is
	// not used for decryption here.
	FileHash uint32

	OriginalSize uint64
	ArchiveSize  uint64

	// Segments is ordered by Offset ascending.
	Segments []Segment
}

// Segment is one contiguous run of bytes contributing to a logical file.
type Segment struct {
	// Start is the absolute byte offset in the underlying stream where
	// the segment's stored payload begins, already rebased by the
	// archive's start offset.
	Start int64

	// Offset is the byte offset inside the reconstructed logical file
	// at which this segment's decompressed bytes belong.
	Offset int64

	OriginalSize uint64
	ArchiveSize  uint64
	Compressed   bool
}

func sortSegmentsByOffset(segments []Segment) {
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Offset < segments[j].Offset
	})
}

func sortItemsByFirstSegmentStart(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		return firstSegmentStart(items[i]) < firstSegmentStart(items[j])
	})
}

func firstSegmentStart(item Item) int64 {
	if len(item.Segments) == 0 {
		return 0
	}
	return item.Segments[0].Start
}
