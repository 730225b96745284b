package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
half_float_deinterlace: true
server:
  addr: 127.0.0.1:9000
`))
	if err != nil {
		t.Fatal(err)
	}
	if !c.HalfFloatDeinterlace {
		t.Errorf("half_float_deinterlace not read")
	}
	if c.Server.Addr != "127.0.0.1:9000" || c.Server.Dir != "." {
		t.Errorf("server %+v", c.Server)
	}
	if c.ColorTolerance != 1e-6 {
		t.Errorf("color_tolerance default lost: %v", c.ColorTolerance)
	}
	if !c.Supports("KHR_mesh_quantization") || c.Supports("KHR_draco_mesh_compression") {
		t.Errorf("supported extensions %v", c.SupportedExtensions)
	}
}

func TestParseErrors(t *testing.T) {
	for _, data := range []string{
		"color_tolerance: -1",
		"server: [1, 2",
		"supported_extensions: 5",
	} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%q: expected error", data)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gltf_browser.yaml")
	if err := os.WriteFile(path, []byte("codec_wasm: draco.wasm\nstream_wasm: meshopt.wasm\n"), 0666); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.CodecWasm != "draco.wasm" || c.StreamWasm != "meshopt.wasm" {
		t.Errorf("codec_wasm=%q stream_wasm=%q", c.CodecWasm, c.StreamWasm)
	}
	if _, err := Load(path + ".missing"); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestGetSet(t *testing.T) {
	defer Set(nil)
	c := Default()
	c.ColorTolerance = 0.5
	Set(c)
	if Get().ColorTolerance != 0.5 {
		t.Errorf("Set not visible through Get")
	}
	Set(nil)
	if Get().ColorTolerance != 1e-6 {
		t.Errorf("Set(nil) should restore defaults")
	}
}
