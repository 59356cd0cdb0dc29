// Package assets registers the gateway's static files (CSS, and anything
// else under static/) with parcello's default resource manager, so
// gateway.Server can serve them through parcello.ManagerAt the same way it
// would serve a bundle produced by parcello's own command-line generator.
package assets

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"embed"
	"io/fs"

	"github.com/phogolabs/parcello"
)

//go:embed static
var static embed.FS

func init() {
	bundle, err := tarGzip(static)
	if err != nil {
		panic(err)
	}
	if err := parcello.AddResource(bytes.NewReader(bundle)); err != nil {
		panic(err)
	}
}

// tarGzip packs src into the gzip-compressed tar stream parcello's resource
// manager expects, standing in for the archive parcello's CLI would
// otherwise produce ahead of time.
func tarGzip(src fs.FS) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := fs.WalkDir(src, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(src, name)
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(data)),
		}); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
