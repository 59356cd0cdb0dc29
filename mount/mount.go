// Package mount exposes an open XP3 archive as a read-only FUSE
// filesystem: every file read is served by xp3.GatherRange directly
// against the archive's items, decompressing only the segments the read
// actually overlaps.
package mount

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	e "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sahib/flare/xp3"
)

// Mount represents one active fuse endpoint serving a single archive.
type Mount struct {
	Dir string

	input  io.ReadSeeker
	conn   *fuse.Conn
	server *fs.Server
	closed bool
}

// New mounts input's contents read-only at mountpoint.
func New(input io.ReadSeeker, mountpoint string) (*Mount, error) {
	items, err := xp3.List(input, nil)
	if err != nil {
		return nil, e.Wrap(err, "mount: listing archive")
	}
	if items == nil {
		return nil, e.New("mount: input is not an XP3 archive")
	}

	conn, err := fuse.Mount(
		mountpoint,
		fuse.FSName("xp3flare"),
		fuse.Subtype("xp3"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return nil, e.Wrapf(err, "mount: fuse-mount %q", mountpoint)
	}

	filesys := &filesystem{input: input, root: buildTree(items)}
	m := &Mount{
		Dir:    mountpoint,
		input:  input,
		conn:   conn,
		server: fs.New(conn, nil),
	}

	errc := make(chan error, 1)
	go func() {
		log.Debugf("mount: serving fuse at %v", mountpoint)
		errc <- m.server.Serve(filesys)
	}()

	select {
	case <-conn.Ready:
		if err := conn.MountError; err != nil {
			return nil, err
		}
	case err := <-errc:
		if err != nil {
			return nil, err
		}
		return nil, e.New("mount: fuse serve exited early")
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Mount) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	for tries := 0; tries < 10; tries++ {
		if err := fuse.Unmount(m.Dir); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	return m.conn.Close()
}

// node is one entry in the archive's reconstructed directory tree.
type node struct {
	name     string
	item     *xp3.Item // nil for directories
	children map[string]*node
}

func buildTree(items []xp3.Item) *node {
	root := &node{name: "/", children: map[string]*node{}}

	for i := range items {
		item := items[i]
		parts := strings.Split(strings.TrimPrefix(item.Name, "/"), "/")

		cur := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur.children[part]
			if !ok {
				next = &node{name: part, children: map[string]*node{}}
				cur.children[part] = next
			}
			cur = next
		}

		leaf := parts[len(parts)-1]
		cur.children[leaf] = &node{name: leaf, item: &item}
	}

	return root
}

func (n *node) isDir() bool {
	return n.item == nil
}

type filesystem struct {
	input io.ReadSeeker
	root  *node
}

func (f *filesystem) Root() (fs.Node, error) {
	return &dirNode{fs: f, n: f.root}, nil
}

type dirNode struct {
	fs *filesystem
	n  *node
}

func (d *dirNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0o555
	return nil
}

func (d *dirNode) Lookup(ctx context.Context, name string) (fs.Node, error) {
	child, ok := d.n.children[name]
	if !ok {
		return nil, fuse.ENOENT
	}
	if child.isDir() {
		return &dirNode{fs: d.fs, n: child}, nil
	}
	return &fileNode{fs: d.fs, n: child}, nil
}

func (d *dirNode) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	var out []fuse.Dirent
	for name, child := range d.n.children {
		typ := fuse.DT_File
		if child.isDir() {
			typ = fuse.DT_Dir
		}
		out = append(out, fuse.Dirent{Name: name, Type: typ})
	}
	return out, nil
}

type fileNode struct {
	fs *filesystem
	n  *node
}

func (f *fileNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0o444
	a.Size = f.n.item.OriginalSize
	return nil
}

func (f *fileNode) ReadAll(ctx context.Context) ([]byte, error) {
	return xp3.Gather(f.fs.input, *f.n.item)
}

// Open lets reads be served per-range via GatherRange instead of always
// slurping the whole item up front, so a read spanning two segments
// inflates only those two.
func (f *fileNode) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	resp.Flags |= fuse.OpenKeepCache
	return &fileHandle{fs: f.fs, item: f.n.item}, nil
}

type fileHandle struct {
	fs   *filesystem
	item *xp3.Item
}

func (h *fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := xp3.GatherRange(h.fs.input, *h.item, req.Offset, int64(req.Size))
	if err != nil {
		return err
	}
	resp.Data = data
	return nil
}
