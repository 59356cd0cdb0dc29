package driver

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

var testMagic = [11]byte{0x58, 0x50, 0x33, 0x0D, 0x0A, 0x20, 0x0A, 0x1A, 0x8B, 0x67, 0x01}

func leU16(v uint16) []byte { b := make([]byte, 2); binary.LittleEndian.PutUint16(b, v); return b }
func leU32(v uint32) []byte { b := make([]byte, 4); binary.LittleEndian.PutUint32(b, v); return b }
func leU64(v uint64) []byte { b := make([]byte, 8); binary.LittleEndian.PutUint64(b, v); return b }

func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

func testChunk(tag string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(tag)
	buf.Write(leU64(uint64(len(body))))
	buf.Write(body)
	return buf.Bytes()
}

// buildSingleItemArchive returns a minimal, uncompressed, single-entry,
// single-segment XP3 archive containing one item called name whose content
// is payload.
func buildSingleItemArchive(name string, payload []byte) []byte {
	info := testChunk("info", func() []byte {
		var b bytes.Buffer
		b.Write(leU32(0))
		b.Write(leU64(uint64(len(payload))))
		b.Write(leU64(uint64(len(payload))))
		units := utf16.Encode([]rune(name))
		b.Write(leU16(uint16(len(units))))
		b.Write(utf16leBytes(name))
		return b.Bytes()
	}())

	headerLen := int64(len(testMagic)) + 8 + 1 + 8

	// One pass to know the index size, a second to fill in the real
	// payload offset now that we know where the payload will land.
	placeholderSegm := testChunk("segm", func() []byte {
		var b bytes.Buffer
		b.Write(leU32(0))
		b.Write(leU64(0))
		b.Write(leU64(uint64(len(payload))))
		b.Write(leU64(uint64(len(payload))))
		return b.Bytes()
	}())
	placeholderAdlr := testChunk("adlr", leU32(0))
	var placeholderFileBody bytes.Buffer
	placeholderFileBody.Write(info)
	placeholderFileBody.Write(placeholderSegm)
	placeholderFileBody.Write(placeholderAdlr)
	indexLen := int64(len(testChunk("File", placeholderFileBody.Bytes())))

	payloadStart := headerLen + indexLen

	segm := testChunk("segm", func() []byte {
		var b bytes.Buffer
		b.Write(leU32(0))
		b.Write(leU64(uint64(payloadStart)))
		b.Write(leU64(uint64(len(payload))))
		b.Write(leU64(uint64(len(payload))))
		return b.Bytes()
	}())
	adlr := testChunk("adlr", leU32(0))

	var fileBody bytes.Buffer
	fileBody.Write(info)
	fileBody.Write(segm)
	fileBody.Write(adlr)
	index := testChunk("File", fileBody.Bytes())

	var out bytes.Buffer
	out.Write(testMagic[:])

	entryStart := uint64(len(testMagic)) + 8
	out.Write(leU64(entryStart))
	out.WriteByte(0x00)
	out.Write(leU64(uint64(len(index))))
	out.Write(index)
	out.Write(payload)
	return out.Bytes()
}

func TestDriverFixedPointTermination(t *testing.T) {
	leaf := []byte("leaf")
	level1Archive := buildSingleItemArchive("leaf.txt", leaf)
	rootArchive := buildSingleItemArchive("level1.xp3", level1Archive)

	dir := t.TempDir()
	rootPath := filepath.Join(dir, "root.xp3")
	require.NoError(t, os.WriteFile(rootPath, rootArchive, 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	jobs := []Job{{Input: rootPath, OutputDir: dir}}
	manifest, err := Run(context.Background(), jobs, cfg, nil)
	require.NoError(t, err)

	entries := manifest.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, rootPath, entries[0].Input)
	require.Len(t, entries[0].Outputs, 2)

	var sawLevel1, sawLeaf bool
	for _, out := range entries[0].Outputs {
		switch filepath.Base(out) {
		case "level1.xp3":
			sawLevel1 = true
		case "leaf.txt":
			sawLeaf = true
		}
	}
	require.True(t, sawLevel1)
	require.True(t, sawLeaf)

	leafPath := filepath.Join(nestedOutputDir(filepath.Join(dir, "level1.xp3")), "leaf.txt")
	data, err := os.ReadFile(leafPath)
	require.NoError(t, err)
	require.Equal(t, "leaf", string(data))
}
