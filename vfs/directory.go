package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DirectoryDriver exposes a directory of the host filesystem.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Init(parent Directory) {}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "list directory %q", dd.path)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result, nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	if !validName(name) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	newPath := filepath.Join(dd.path, name)
	s, err := os.Stat(newPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%q", newPath)
		}
		return nil, errors.Wrapf(err, "stat %q", newPath)
	}
	var e Element
	if s.IsDir() {
		e = NewDirectoryDriver(newPath)
	} else {
		e = &DirectoryDriverFile{path: newPath}
	}
	e.Init(dd)
	return e, nil
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func (ddf *DirectoryDriverFile) Init(parent Directory) {}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Size() int64 {
	stat, err := os.Stat(ddf.path)
	if err != nil {
		return 0
	}
	return stat.Size()
}

func (ddf *DirectoryDriverFile) Open() error {
	if ddf.f != nil {
		return errors.Errorf("file %q already opened", ddf.path)
	}
	f, err := os.Open(ddf.path)
	if err != nil {
		return errors.Wrapf(err, "open %q", ddf.path)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f == nil {
		return nil
	}
	err := ddf.f.Close()
	ddf.f = nil
	return errors.Wrapf(err, "close %q", ddf.path)
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, errNotOpened
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

func (ddf *DirectoryDriverFile) ReadAt(b []byte, off int64) (n int, err error) {
	if ddf.f == nil {
		return 0, errNotOpened
	}
	return ddf.f.ReadAt(b, off)
}
