package glb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

type chunk struct {
	typ  uint32
	data []byte
}

func build(version uint32, chunks ...chunk) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		binary.Write(&body, binary.LittleEndian, uint32(len(c.data)))
		binary.Write(&body, binary.LittleEndian, c.typ)
		body.Write(c.data)
	}
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint32(Magic))
	binary.Write(&out, binary.LittleEndian, version)
	binary.Write(&out, binary.LittleEndian, uint32(headerSize+body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func pad(s string) []byte {
	b := []byte(s)
	for len(b)%4 != 0 {
		b = append(b, ' ')
	}
	return b
}

func TestParseJSONOnly(t *testing.T) {
	const doc = `{"asset":{"version":"2.0"}}`
	data := build(2, chunk{ChunkJSON, pad(doc)})

	if !IsGLB(data) {
		t.Fatalf("IsGLB=false")
	}
	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Binary) != 0 {
		t.Errorf("len(Binary)=%d; expected 0", len(c.Binary))
	}
	if c.BIN() != nil {
		t.Errorf("BIN() should be nil")
	}

	var got, want interface{}
	if err := json.Unmarshal(c.JSON, &got); err != nil {
		t.Fatal(err)
	}
	json.Unmarshal([]byte(doc), &want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("json=%v; expected %v", got, want)
	}
}

func TestParseWithBIN(t *testing.T) {
	bin := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	data := build(2,
		chunk{ChunkJSON, pad(`{"asset":{"version":"2.0"}}`)},
		chunk{ChunkBIN, bin},
		chunk{0x12345678, []byte{0, 0, 0, 0}})

	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.BIN(), bin) {
		t.Errorf("BIN()=%v; expected %v", c.BIN(), bin)
	}
}

func TestParseErrors(t *testing.T) {
	jsonChunk := chunk{ChunkJSON, pad(`{}`)}
	binChunk := chunk{ChunkBIN, []byte{0, 0, 0, 0}}

	badMagic := build(2, jsonChunk)
	badMagic[0] = 'x'

	overflow := build(2, jsonChunk)
	binary.LittleEndian.PutUint32(overflow[12:], 1000)

	longHeader := build(2, jsonChunk)
	binary.LittleEndian.PutUint32(longHeader[8:], uint32(len(longHeader)+4))

	var tests = []struct {
		name string
		data []byte
	}{
		{"short", []byte{0x67, 0x6c, 0x54, 0x46}},
		{"magic", badMagic},
		{"version", build(1, jsonChunk)},
		{"chunk overflow", overflow},
		{"declared length", longHeader},
		{"no json", build(2)},
		{"bin first", build(2, binChunk, jsonChunk)},
		{"unknown first", build(2, chunk{0x11223344, nil}, jsonChunk)},
		{"two json", build(2, jsonChunk, jsonChunk)},
		{"two bin", build(2, jsonChunk, binChunk, binChunk)},
		{"truncated chunk header", append(build(2, jsonChunk), 0, 0, 0, 0)},
	}

	// fix total length of the last case so only the dangling chunk header is wrong
	last := tests[len(tests)-1].data
	binary.LittleEndian.PutUint32(last[8:], uint32(len(last)))

	for _, test := range tests {
		_, err := Parse(test.data)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		if !errors.Is(err, ErrContainerFormat) {
			t.Errorf("%s: error %v is not ErrContainerFormat", test.name, err)
		}
	}
}
