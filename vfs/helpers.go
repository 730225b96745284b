package vfs

import (
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound  = errors.New("not found")
	errNotOpened = errors.New("file is not opened")
)

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, err
	}
	if e.IsDirectory() {
		return nil, errors.Errorf("%q is a directory, not a file", name)
	}
	return e.(File), nil
}

// Lookup walks a slash separated path. Paths never leave d: ".." and
// absolute paths are refused.
func Lookup(d Directory, p string) (Element, error) {
	if p == "" || strings.HasPrefix(p, "/") || path.Clean(p) != p || strings.HasPrefix(p, "../") || p == ".." {
		return nil, errors.Wrapf(ErrNotFound, "bad path %q", p)
	}
	parts := strings.Split(p, "/")
	cur := d
	for i, part := range parts {
		e, err := cur.GetElement(part)
		if err != nil {
			return nil, err
		}
		if i == len(parts)-1 {
			return e, nil
		}
		dir, ok := e.(Directory)
		if !ok {
			return nil, errors.Wrapf(ErrNotFound, "%q is not a directory", path.Join(parts[:i+1]...))
		}
		cur = dir
	}
	return nil, errors.Wrapf(ErrNotFound, "%q", p)
}

func ReadFile(d Directory, p string) ([]byte, error) {
	e, err := Lookup(d, p)
	if err != nil {
		return nil, err
	}
	f, ok := e.(File)
	if !ok {
		return nil, errors.Errorf("%q is a directory, not a file", p)
	}
	if err := f.Open(); err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	return data, errors.Wrapf(err, "read %q", p)
}

// Walk calls fn with the slash separated path of every file under d.
func Walk(d Directory, fn func(p string, f File) error) error {
	return walk(d, "", fn)
}

func walk(d Directory, prefix string, fn func(string, File) error) error {
	names, err := d.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		e, err := d.GetElement(name)
		if err != nil {
			return err
		}
		p := path.Join(prefix, name)
		switch e := e.(type) {
		case Directory:
			if err := walk(e, p, fn); err != nil {
				return err
			}
		case File:
			if err := fn(p, e); err != nil {
				return err
			}
		}
	}
	return nil
}
