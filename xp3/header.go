package xp3

import "bytes"

// magic is the 11-byte XP3 header: "XP3\r\n \x1A\x8Bg\x01". The trailing
// version/encoding byte (0x01) means UTF-16 BMP, file structure version 0.
var magic = [11]byte{0x58, 0x50, 0x33, 0x0D, 0x0A, 0x20, 0x0A, 0x1A, 0x8B, 0x67, 0x01}

const (
	peBoundary = 16 // Kirikiri packer alignment for an embedded archive.
	mzByte0    = 0x4D
	mzByte1    = 0x5A
)

// locateHeader finds the byte offset at which the XP3 magic begins.
// Returns (offset, true, nil) on a match, (0, false, nil) when the stream
// is simply not an XP3 container, and a non-nil error only for an I/O
// failure distinct from "header absent".
func locateHeader(b *byteReader) (int64, bool, error) {
	if _, err := b.seek(seekFromStart, 0); err != nil {
		return 0, false, err
	}

	head, err := b.readExact(len(magic))
	if err != nil {
		// Short read before even 11 bytes: not an archive, not an error.
		return 0, false, nil
	}

	if head[0] == mzByte0 && head[1] == mzByte1 {
		return locateEmbeddedHeader(b)
	}

	if bytes.Equal(head, magic[:]) {
		return 0, true, nil
	}

	return 0, false, nil
}

// locateEmbeddedHeader scans 16-byte boundaries starting at offset 16,
// looking for the magic after a Win32 executable stub.
func locateEmbeddedHeader(b *byteReader) (int64, bool, error) {
	offset := int64(peBoundary)

	for {
		if _, err := b.seek(seekFromStart, offset); err != nil {
			return 0, false, err
		}

		candidate, err := b.readExact(len(magic))
		if err != nil {
			// Ran off the end of the stream without a match.
			return 0, false, nil
		}

		if bytes.Equal(candidate, magic[:]) {
			return offset, true, nil
		}

		offset += peBoundary
	}
}
