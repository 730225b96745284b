package wasmcodec

// A few helpers to assemble tiny guest modules: one page of exported
// memory plus functions over i32 only.

type wasmFunc struct {
	sig  []byte
	body []byte
}

type wasmExport struct {
	name string
	fn   byte
}

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sig(params, results int) []byte {
	out := append([]byte{0x60}, uleb(params)...)
	for i := 0; i < params; i++ {
		out = append(out, 0x7f)
	}
	out = append(out, uleb(results)...)
	for i := 0; i < results; i++ {
		out = append(out, 0x7f)
	}
	return out
}

// i32Const is i32.const v with a signed leb128 immediate.
func i32Const(v int32) []byte {
	out := []byte{0x41}
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func section(id byte, items ...[]byte) []byte {
	body := uleb(len(items))
	for _, item := range items {
		body = append(body, item...)
	}
	return append(append([]byte{id}, uleb(len(body))...), body...)
}

// assemble gives every function its own type; bodies have no locals.
func assemble(funcs []wasmFunc, exports ...wasmExport) []byte {
	var types, indices, codes [][]byte
	for i, f := range funcs {
		types = append(types, f.sig)
		indices = append(indices, uleb(i))
		body := append(append([]byte{0x00}, f.body...), 0x0b)
		codes = append(codes, append(uleb(len(body)), body...))
	}

	entries := [][]byte{append(append(uleb(len("memory")), "memory"...), 0x02, 0x00)}
	for _, e := range exports {
		entries = append(entries, append(append(uleb(len(e.name)), e.name...), 0x00, e.fn))
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, types...)...)
	out = append(out, section(3, indices...)...)
	out = append(out, section(5, []byte{0x00, 0x01})...)
	out = append(out, section(7, entries...)...)
	out = append(out, section(10, codes...)...)
	return out
}
