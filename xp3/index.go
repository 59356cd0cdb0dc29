package xp3

const (
	entryFlagEncodingMask = 0x07
	entryFlagZlib         = 0x01
	entryFlagRaw          = 0x00
	entryFlagContinue     = 0x80

	maxChunkSize = 1<<32 - 1 // guard against a chunk size too large to be real
)

// indexEntry is one decoded index entry: its (possibly inflated) body and
// the flag byte that described its encoding and continuation bit.
type indexEntry struct {
	body []byte
	flag uint8
}

func (e indexEntry) hasContinuation() bool {
	return e.flag&entryFlagContinue != 0
}

// loadIndexes walks the linked list of index entries starting right after
// the 11-byte magic, inflating zlib-compressed entries, and returns them in
// order. It stops after the first entry whose continuation bit is clear.
//
// Each entry's 64-bit offset field is read from wherever the previous
// entry's body ended (or, for the first entry, right after the magic) —
// the "chain" is a property of on-disk layout, not an explicit pointer
// stored with the entry itself.
func loadIndexes(b *byteReader, archiveBase int64) ([]indexEntry, error) {
	var entries []indexEntry

	cursor := archiveBase + int64(len(magic))
	for {
		entry, next, err := loadOneIndex(b, archiveBase, cursor)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)

		if !entry.hasContinuation() {
			return entries, nil
		}
		cursor = next
	}
}

// loadOneIndex reads a single index entry starting at cursor (the
// position of the next 64-bit entry-offset field) and returns the parsed
// entry plus the stream position just past it, which is where the next
// entry-offset field (if any) lives.
func loadOneIndex(b *byteReader, archiveBase, cursor int64) (indexEntry, int64, error) {
	if _, err := b.seek(seekFromStart, cursor); err != nil {
		return indexEntry{}, 0, err
	}

	relOffset, err := b.readU64()
	if err != nil {
		return indexEntry{}, 0, err
	}

	// The addition is performed modulo 2^64 because the stored offset
	// is permitted to wrap when the archive base is non-zero.
	entryStart := int64(uint64(archiveBase) + relOffset)

	if _, err := b.seek(seekFromStart, entryStart); err != nil {
		return indexEntry{}, 0, err
	}

	flag, err := b.readU8()
	if err != nil {
		return indexEntry{}, 0, err
	}

	var body []byte
	switch flag & entryFlagEncodingMask {
	case entryFlagZlib:
		archiveSize, err := b.readU64()
		if err != nil {
			return indexEntry{}, 0, err
		}
		originalSize, err := b.readU64()
		if err != nil {
			return indexEntry{}, 0, err
		}

		compressed, err := b.readExact(int(archiveSize))
		if err != nil {
			return indexEntry{}, 0, err
		}

		body, err = inflate(compressed, int64(originalSize))
		if err != nil {
			return indexEntry{}, 0, err
		}
	case entryFlagRaw:
		indexSize, err := b.readU64()
		if err != nil {
			return indexEntry{}, 0, err
		}

		body, err = b.readExact(int(indexSize))
		if err != nil {
			return indexEntry{}, 0, err
		}
	default:
		return indexEntry{}, 0, ErrBadEntryFlag
	}

	nextCursor, err := b.pos()
	if err != nil {
		return indexEntry{}, 0, err
	}

	return indexEntry{body: body, flag: flag}, nextCursor, nil
}
