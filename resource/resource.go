// Package resource resolves buffer and document references for the loader.
package resource

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/vfs"
)

var (
	ErrBadDataURI     = errors.New("bad data uri")
	ErrUnsupportedURI = errors.New("unsupported uri")
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DirLoader reads references from a vfs tree. Files named *.gz, *.zst or
// *.zstd are inflated transparently, everything else is returned as stored.
type DirLoader struct {
	root vfs.Directory
}

func NewDirLoader(root vfs.Directory) *DirLoader {
	return &DirLoader{root: root}
}

func (dl *DirLoader) LoadBytes(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(ref, "data:") {
		return DecodeDataURI(ref)
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return nil, errors.Wrapf(ErrUnsupportedURI, "%q", ref)
	}

	p, err := url.PathUnescape(ref)
	if err != nil {
		p = ref
	}
	data, err := dl.read(p)
	if err != nil {
		return nil, err
	}
	return inflate(p, data)
}

// read tries p as given, then its NFC and NFD forms, then the bare file
// name at the root for assets whose files were flattened into one folder.
func (dl *DirLoader) read(p string) ([]byte, error) {
	candidates := []string{p, norm.NFC.String(p), norm.NFD.String(p)}
	if base := path.Base(p); base != p {
		candidates = append(candidates, base)
	}

	var firstErr error
	tried := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if tried[c] {
			continue
		}
		tried[c] = true
		data, err := vfs.ReadFile(dl.root, c)
		if err == nil {
			if c != p {
				diag.Logger().Debug("resource found under alternate name", zap.String("ref", p), zap.String("name", c))
			}
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if !errors.Is(err, vfs.ErrNotFound) {
			break
		}
	}
	return nil, errors.Wrapf(firstErr, "resource %q", p)
}

func inflate(name string, data []byte) ([]byte, error) {
	switch ext := strings.ToLower(path.Ext(name)); {
	case ext == ".gz" && bytes.HasPrefix(data, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		return out, errors.Wrap(err, "gzip")
	case (ext == ".zst" || ext == ".zstd") && bytes.HasPrefix(data, zstdMagic):
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		defer d.Close()
		out, err := d.DecodeAll(data, nil)
		return out, errors.Wrap(err, "zstd")
	}
	return data, nil
}

// DecodeDataURI decodes data:[<mediatype>][;base64],<data>.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, errors.Wrapf(ErrBadDataURI, "no data: prefix")
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errors.Wrapf(ErrBadDataURI, "no ',' separator")
	}
	header, payload := uri[len("data:"):comma], uri[comma+1:]

	if strings.HasSuffix(header, ";base64") {
		payload = strings.TrimRight(payload, "=")
		data, err := base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			if data, err = base64.RawURLEncoding.DecodeString(payload); err != nil {
				return nil, errors.Wrapf(ErrBadDataURI, "base64: %v", err)
			}
		}
		return data, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrapf(ErrBadDataURI, "percent encoding: %v", err)
	}
	return []byte(data), nil
}
