// glbunpack splits a .glb into a .gltf document and a .bin buffer next to
// each other, or packs such a pair back with -pack.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/gltf_browser/utils/gltfutils"
)

func unpack(in, outDir string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	binName := base + ".bin"

	jsonText, bin, err := gltfutils.Unpack(data, binName)
	if err != nil {
		return errors.Wrapf(err, "unpack %q", in)
	}
	if err := os.MkdirAll(outDir, 0776); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, base+".gltf"), jsonText, 0666); err != nil {
		return err
	}
	if bin != nil {
		if err := os.WriteFile(filepath.Join(outDir, binName), bin, 0666); err != nil {
			return err
		}
	}
	log.Printf("[glbunpack] %s -> %s (%d bytes json, %d bytes bin)", in, outDir, len(jsonText), len(bin))
	return nil
}

// pack uses qmuntal/gltf to read the document with its external buffers.
func pack(in, out string) error {
	doc, err := gltf.Open(in)
	if err != nil {
		return errors.Wrapf(err, "open %q", in)
	}
	if len(doc.Buffers) > 1 {
		return errors.Errorf("%q has %d buffers, only single buffer documents can be packed", in, len(doc.Buffers))
	}
	for _, b := range doc.Buffers {
		b.URI = ""
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gltfutils.ExportBinary(f, doc); err != nil {
		return errors.Wrapf(err, "write %q", out)
	}
	log.Printf("[glbunpack] %s -> %s", in, out)
	return nil
}

func main() {
	var in, out string
	var doPack bool
	flag.StringVar(&in, "in", "", "Input .glb (or .gltf with -pack)")
	flag.StringVar(&out, "out", "", "Output directory (or .glb file with -pack)")
	flag.BoolVar(&doPack, "pack", false, "Pack .gltf + buffers into a .glb")
	flag.Parse()

	if in == "" {
		flag.PrintDefaults()
		return
	}

	var err error
	if doPack {
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + ".glb"
		}
		err = pack(in, out)
	} else {
		if out == "" {
			out = filepath.Dir(in)
		}
		err = unpack(in, out)
	}
	if err != nil {
		log.Fatal(err)
	}
}
