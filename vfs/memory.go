package vfs

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// MemoryDirectory is an in-memory tree, keyed by slash separated paths.
type MemoryDirectory struct {
	name  string
	files map[string][]byte
}

// NewMemoryDirectory builds a tree from path → contents, intermediate
// directories are implied by the paths.
func NewMemoryDirectory(name string, files map[string][]byte) *MemoryDirectory {
	return &MemoryDirectory{name: name, files: files}
}

func (md *MemoryDirectory) Init(parent Directory) {}
func (md *MemoryDirectory) Name() string          { return md.name }
func (md *MemoryDirectory) IsDirectory() bool     { return true }

func (md *MemoryDirectory) List() ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	for p := range md.files {
		name := strings.SplitN(p, "/", 2)[0]
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (md *MemoryDirectory) GetElement(name string) (Element, error) {
	if !validName(name) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if data, ok := md.files[name]; ok {
		return &MemoryFile{name: name, data: data}, nil
	}
	prefix := name + "/"
	sub := make(map[string][]byte)
	for p, data := range md.files {
		if strings.HasPrefix(p, prefix) {
			sub[p[len(prefix):]] = data
		}
	}
	if len(sub) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return NewMemoryDirectory(name, sub), nil
}

type MemoryFile struct {
	name   string
	data   []byte
	opened bool
}

func (mf *MemoryFile) Init(parent Directory) {}
func (mf *MemoryFile) Name() string          { return mf.name }
func (mf *MemoryFile) IsDirectory() bool     { return false }
func (mf *MemoryFile) Size() int64           { return int64(len(mf.data)) }

func (mf *MemoryFile) Open() error {
	mf.opened = true
	return nil
}

func (mf *MemoryFile) Close() error {
	mf.opened = false
	return nil
}

func (mf *MemoryFile) Reader() (*io.SectionReader, error) {
	if !mf.opened {
		return nil, errNotOpened
	}
	return io.NewSectionReader(bytes.NewReader(mf.data), 0, mf.Size()), nil
}

func (mf *MemoryFile) ReadAt(b []byte, off int64) (int, error) {
	if !mf.opened {
		return 0, errNotOpened
	}
	return bytes.NewReader(mf.data).ReadAt(b, off)
}
