package mount

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"bazil.org/fuse"

	"github.com/sahib/flare/xp3"
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

// buildTwoSegmentArchive returns an archive with a single item named name
// whose content is split across two segments, so a read spanning both
// exercises GatherRange's multi-segment path.
func buildTwoSegmentArchive(name string, first, second []byte) []byte {
	total := uint64(len(first) + len(second))

	info := testChunk("info", func() []byte {
		var b bytes.Buffer
		b.Write(leU32(0))
		b.Write(leU64(total))
		b.Write(leU64(total))
		units := utf16.Encode([]rune(name))
		b.Write(leU16(uint16(len(units))))
		b.Write(utf16leBytes(name))
		return b.Bytes()
	}())

	segEntry := func(offset int64, payloadOffset int64, size uint64) []byte {
		var b bytes.Buffer
		b.Write(leU32(0))
		b.Write(leU64(uint64(payloadOffset)))
		b.Write(leU64(size))
		b.Write(leU64(size))
		return b.Bytes()
	}

	headerLen := int64(len(testMagic)) + 8 + 1 + 8

	// Both segment records go into a single segm sub-chunk, one 28-byte
	// record each.
	placeholder := testChunk("segm", append(segEntry(0, 0, uint64(len(first))), segEntry(0, 0, uint64(len(second)))...))
	adlr := testChunk("adlr", leU32(0))
	var placeholderBody bytes.Buffer
	placeholderBody.Write(info)
	placeholderBody.Write(placeholder)
	placeholderBody.Write(adlr)
	indexLen := int64(len(testChunk("File", placeholderBody.Bytes())))

	payloadStart := headerLen + indexLen

	segm := testChunk("segm", append(
		segEntry(0, payloadStart, uint64(len(first))),
		segEntry(0, payloadStart+int64(len(first)), uint64(len(second)))...,
	))

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
	out.Write(first)
	out.Write(second)
	return out.Bytes()
}

func TestBuildTreeNestsDirectories(t *testing.T) {
	items := []xp3.Item{
		{Name: "readme.txt"},
		{Name: "assets/image.png"},
	}
	root := buildTree(items)

	require.Contains(t, root.children, "readme.txt")
	require.Contains(t, root.children, "assets")
	require.True(t, root.children["assets"].isDir())
	require.Contains(t, root.children["assets"].children, "image.png")
}

func TestFileHandleReadSpansTwoSegments(t *testing.T) {
	data := buildTwoSegmentArchive("hello.txt", []byte("he"), []byte("llo"))
	r := bytes.NewReader(data)

	items, err := xp3.List(r, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)

	fsys := &filesystem{input: r, root: buildTree(items)}
	root, err := fsys.Root()
	require.NoError(t, err)

	rootDir := root.(*dirNode)
	n, err := rootDir.Lookup(context.Background(), "hello.txt")
	require.NoError(t, err)

	file := n.(*fileNode)
	fh := &fileHandle{fs: fsys, item: file.n.item}

	req := &fuse.ReadRequest{Offset: 1, Size: 3}
	resp := &fuse.ReadResponse{}
	require.NoError(t, fh.Read(context.Background(), req, resp))
	require.Equal(t, "ell", string(resp.Data))

	all, err := xp3.Gather(r, *fh.item)
	require.NoError(t, err)
	require.Equal(t, "hello", string(all))
}
