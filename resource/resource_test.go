package resource

import (
	"bytes"
	"context"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/vfs"
)

func TestDecodeDataURI(t *testing.T) {
	var tests = []struct {
		uri  string
		want string
		err  bool
	}{
		{"data:application/octet-stream;base64,AQID", "\x01\x02\x03", false},
		{"data:application/gltf-buffer;base64,AQIDBA==", "\x01\x02\x03\x04", false},
		{"data:application/octet-stream;base64,AQIDBA", "\x01\x02\x03\x04", false},
		{"data:;base64,_-8", "\xff\xef", false},
		{"data:text/plain,a%20b", "a b", false},
		{"data:,", "", false},
		{"data:application/octet-stream;base64", "", true},
		{"data:application/octet-stream;base64,!!!", "", true},
		{"data:text/plain,%zz", "", true},
	}
	for _, test := range tests {
		got, err := DecodeDataURI(test.uri)
		if test.err {
			if !errors.Is(err, ErrBadDataURI) {
				t.Errorf("%q: err=%v; expected ErrBadDataURI", test.uri, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.uri, err)
		} else if string(got) != test.want {
			t.Errorf("%q: got %q; expected %q", test.uri, got, test.want)
		}
	}
}

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDirLoader(t *testing.T) {
	payload := []byte("buffer payload")
	root := vfs.NewMemoryDirectory("assets", map[string][]byte{
		"plain.bin":         payload,
		"sub dir/space.bin": payload,
		"packed.bin.gz":     gzipped(t, payload),
		"packed.bin.zst":    zstded(t, payload),
		"caf\u00e9.bin":     payload,
		"flat.bin":          payload,
	})
	dl := NewDirLoader(root)
	ctx := context.Background()

	var tests = []string{
		"plain.bin",
		"sub%20dir/space.bin",
		"sub dir/space.bin",
		"packed.bin.gz",
		"packed.bin.zst",
		"cafe\u0301.bin",
		"textures/flat.bin",
		"data:application/octet-stream;base64,YnVmZmVyIHBheWxvYWQ=",
	}
	for _, ref := range tests {
		got, err := dl.LoadBytes(ctx, ref)
		if err != nil {
			t.Errorf("%q: %v", ref, err)
		} else if !bytes.Equal(got, payload) {
			t.Errorf("%q: got %q", ref, got)
		}
	}
}

func TestDirLoaderKeepsMagicLookalikes(t *testing.T) {
	var tests = []struct {
		name string
		data []byte
	}{
		{"raw.bin", []byte{0x1f, 0x8b, 0x00, 0x00, 0x80, 0x3f}},
		{"raw.glb", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x01}},
		{"plain.gz", []byte("not actually gzip")},
	}
	files := make(map[string][]byte, len(tests))
	for _, test := range tests {
		files[test.name] = test.data
	}
	dl := NewDirLoader(vfs.NewMemoryDirectory("assets", files))

	for _, test := range tests {
		got, err := dl.LoadBytes(context.Background(), test.name)
		if err != nil {
			t.Errorf("%q: %v", test.name, err)
		} else if !bytes.Equal(got, test.data) {
			t.Errorf("%q: got % x; expected % x", test.name, got, test.data)
		}
	}
}

func TestDirLoaderErrors(t *testing.T) {
	dl := NewDirLoader(vfs.NewMemoryDirectory("assets", map[string][]byte{"a.bin": {1}}))

	if _, err := dl.LoadBytes(context.Background(), "missing.bin"); !errors.Is(err, vfs.ErrNotFound) {
		t.Errorf("err=%v; expected ErrNotFound", err)
	}
	if _, err := dl.LoadBytes(context.Background(), "https://example.com/a.bin"); !errors.Is(err, ErrUnsupportedURI) {
		t.Errorf("err=%v; expected ErrUnsupportedURI", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dl.LoadBytes(ctx, "a.bin"); !errors.Is(err, context.Canceled) {
		t.Errorf("err=%v; expected context.Canceled", err)
	}
}
