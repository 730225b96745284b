package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func testTree() *MemoryDirectory {
	return NewMemoryDirectory("root", map[string][]byte{
		"box.glb":            []byte("glb"),
		"scene/scene.gltf":   []byte("{}"),
		"scene/bin/data.bin": []byte{1, 2, 3},
	})
}

func TestMemoryLookup(t *testing.T) {
	d := testTree()

	var tests = []struct {
		path string
		want string
		err  bool
	}{
		{"box.glb", "glb", false},
		{"scene/scene.gltf", "{}", false},
		{"scene/bin/data.bin", "\x01\x02\x03", false},
		{"scene/missing.bin", "", true},
		{"../box.glb", "", true},
		{"scene/../box.glb", "", true},
		{"/box.glb", "", true},
		{"scene", "", true},
	}
	for _, test := range tests {
		data, err := ReadFile(d, test.path)
		if (err != nil) != test.err {
			t.Errorf("%q: err=%v", test.path, err)
			continue
		}
		if string(data) != test.want {
			t.Errorf("%q: got %q; expected %q", test.path, data, test.want)
		}
	}

	if _, err := Lookup(d, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v; expected ErrNotFound", err)
	}
}

func TestWalk(t *testing.T) {
	var got []string
	err := Walk(testTree(), func(p string, f File) error {
		got = append(got, p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"box.glb", "scene/bin/data.bin", "scene/scene.gltf"}
	if len(got) != len(want) {
		t.Fatalf("walk %v; expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("walk %v; expected %v", got, want)
			break
		}
	}
}

func TestDirectoryDriver(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.bin"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDirectoryDriver(dir)
	data, err := ReadFile(d, "sub/a.bin")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("read %q", data)
	}

	f, err := DirectoryGetFile(d, "sub")
	if err == nil {
		t.Errorf("directory returned as file %v", f)
	}
	if _, err := ReadFile(d, "sub/b.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err=%v; expected ErrNotFound", err)
	}
}
