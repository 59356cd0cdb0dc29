package xp3

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	e "github.com/pkg/errors"
)

// Extract parses input as an XP3 archive and writes every logical file it
// contains into outputDir, returning the list of paths written.
//
// If input does not begin with the XP3 magic (optionally after a Win32
// executable stub), Extract returns an empty slice and a nil error — format
// probing is expected to be speculative. Once the magic is confirmed, a
// structural problem elsewhere in the archive is a fatal, wrapped error.
//
// diag may be nil, in which case warnings are discarded.
func Extract(input io.ReadSeeker, outputDir string, diag DiagSink) ([]string, error) {
	items, err := List(input, diag)
	if err != nil || items == nil {
		return nil, err
	}

	var written []string
	for _, item := range items {
		if len(item.Segments) == 0 {
			continue
		}

		path, err := writeItem(input, outputDir, item)
		if err != nil {
			return written, e.Wrapf(err, "xp3: writing %q", item.Name)
		}
		written = append(written, path)
	}

	return written, nil
}

// List parses input as an XP3 archive and returns its items without writing
// anything to disk — the read-only counterpart to Extract, used by callers
// that want to browse or selectively read an archive's contents.
//
// Returns (nil, nil) when input does not begin with the XP3 magic.
func List(input io.ReadSeeker, diag DiagSink) ([]Item, error) {
	b := newByteReader(input)

	archiveBase, found, err := locateHeader(b)
	if err != nil {
		return nil, e.Wrap(err, "xp3: locating header")
	}
	if !found {
		return nil, nil
	}

	entries, err := loadIndexes(b, archiveBase)
	if err != nil {
		return nil, e.Wrap(err, "xp3: loading index")
	}

	var items []Item
	for _, entry := range entries {
		items = append(items, parseTopLevel(entry.body, archiveBase, diag)...)
	}

	// Reorders items into roughly sequential disk-read order against the
	// input; the sole purpose is locality, not any semantic guarantee
	// about item ordering.
	sortItemsByFirstSegmentStart(items)
	return items, nil
}

// Gather reads and reassembles an item's full content into memory,
// inflating any compressed segments. Used by the browser's "show"/"extract
// <name>" commands, where writing straight to a file isn't appropriate.
func Gather(input io.ReadSeeker, item Item) ([]byte, error) {
	return GatherRange(input, item, 0, int64(item.OriginalSize))
}

// GatherRange reads only the segments overlapping [offset, offset+length)
// of item's logical content, inflating each as needed, and returns exactly
// that byte range: a read spanning two segments gathers and inflates only
// those two, never the whole file.
func GatherRange(input io.ReadSeeker, item Item, offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, e.Errorf("xp3: invalid range [%d, %d)", offset, offset+length)
	}

	end := offset + length
	out := make([]byte, 0, length)

	for _, seg := range item.Segments {
		segEnd := seg.Offset + int64(seg.OriginalSize)
		if segEnd <= offset || seg.Offset >= end {
			continue
		}

		data, err := readSegment(input, seg)
		if err != nil {
			return nil, err
		}

		// Clip data to the requested range before appending.
		lo := int64(0)
		if offset > seg.Offset {
			lo = offset - seg.Offset
		}
		hi := int64(len(data))
		if segEnd > end {
			hi = int64(len(data)) - (segEnd - end)
		}
		if lo < hi {
			out = append(out, data[lo:hi]...)
		}
	}

	return out, nil
}

func writeItem(input io.ReadSeeker, outputDir string, item Item) (string, error) {
	path := filepath.Join(outputDir, filepath.FromSlash(item.Name))

	// item.Name comes from untrusted archive data; refuse to write
	// outside outputDir rather than letting a crafted "../../" name
	// escape it.
	rel, err := filepath.Rel(outputDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", e.Errorf("item name %q escapes output directory", item.Name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, seg := range item.Segments {
		data, err := readSegment(input, seg)
		if err != nil {
			return "", err
		}
		if _, err := f.WriteAt(data, seg.Offset); err != nil {
			return "", err
		}
	}

	return path, nil
}

// readSegment reads and, if necessary, inflates one segment's stored bytes,
// returning exactly OriginalSize decoded bytes.
func readSegment(input io.ReadSeeker, seg Segment) ([]byte, error) {
	if _, err := input.Seek(seg.Start, io.SeekStart); err != nil {
		return nil, err
	}

	if seg.Compressed {
		compressed := make([]byte, seg.ArchiveSize)
		if _, err := io.ReadFull(input, compressed); err != nil {
			return nil, e.Wrap(ErrTruncated, err.Error())
		}

		return inflate(compressed, int64(seg.OriginalSize))
	}

	buf := make([]byte, seg.OriginalSize)
	if _, err := io.ReadFull(input, buf); err != nil {
		return nil, e.Wrap(ErrTruncated, err.Error())
	}
	return buf, nil
}
