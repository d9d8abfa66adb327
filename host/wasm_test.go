package host

// Hand-assembled guest modules for tests. Function indices: imports
// upload_bytes=0, request_timeout=1, seconds_now=2; defined functions
// follow in the order of the code section.

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			return out
		}
	}
}

func section(id byte, items ...[]byte) []byte {
	body := uleb(len(items))
	for _, it := range items {
		body = append(body, it...)
	}
	out := []byte{id}
	out = append(out, uleb(len(body))...)
	return append(out, body...)
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// body wraps instructions into a code entry with no locals.
func body(instrs ...byte) []byte {
	b := append([]byte{0x00}, instrs...)
	b = append(b, 0x0b)
	return append(uleb(len(b)), b...)
}

func funcImport(mod, fn string, typeIdx byte) []byte {
	return cat(name(mod), name(fn), []byte{0x00, typeIdx})
}

func funcExport(fn string, idx byte) []byte {
	return cat(name(fn), []byte{0x00, idx})
}

// data places bytes at an i32.const offset given as signed LEB bytes.
func data(offset []byte, payload string) []byte {
	return cat([]byte{0x00, 0x41}, offset, []byte{0x0b}, name(payload))
}

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

const (
	i32 = 0x7f
	f64 = 0x7c
)

// guestModule exports:
//
//	get_buffer_pointer(id) -> 1024
//	run():                 upload "console_log\0hi", request_timeout(3, 10)
//	trigger_timeout(id):   upload "console_log\0fired"
//	echo() -> size:        upload "echo.7\0hello"
//	now() -> f64:          seconds_now()
//	bad():                 upload "nope\0"
func guestModule() []byte {
	types := section(0x01,
		[]byte{0x60, 2, i32, i32, 1, i32}, // 0 (i32, i32) -> i32
		[]byte{0x60, 2, i32, i32, 0},      // 1 (i32, i32)
		[]byte{0x60, 0, 1, f64},           // 2 () -> f64
		[]byte{0x60, 1, i32, 1, i32},      // 3 (i32) -> i32
		[]byte{0x60, 0, 0},                // 4 ()
		[]byte{0x60, 1, i32, 0},           // 5 (i32)
		[]byte{0x60, 0, 1, i32},           // 6 () -> i32
	)
	imports := section(0x02,
		funcImport("env", "upload_bytes", 0),
		funcImport("env", "request_timeout", 1),
		funcImport("env", "seconds_now", 2),
	)
	funcs := section(0x03,
		[]byte{3}, // 3 get_buffer_pointer
		[]byte{4}, // 4 run
		[]byte{5}, // 5 trigger_timeout
		[]byte{6}, // 6 echo
		[]byte{2}, // 7 now
		[]byte{4}, // 8 bad
	)
	memory := section(0x05, []byte{0x00, 0x01})
	exports := section(0x07,
		cat(name("memory"), []byte{0x02, 0x00}),
		funcExport("get_buffer_pointer", 3),
		funcExport("run", 4),
		funcExport("trigger_timeout", 5),
		funcExport("echo", 6),
		funcExport("now", 7),
		funcExport("bad", 8),
	)
	code := section(0x0a,
		body(0x41, 0x80, 0x08),
		body(
			0x41, 0x00, 0x41, 0x0e, 0x10, 0x00, 0x1a,
			0x41, 0x03, 0x41, 0x0a, 0x10, 0x01,
		),
		body(0x41, 0x20, 0x41, 0x11, 0x10, 0x00, 0x1a),
		body(0x41, 0xc0, 0x00, 0x41, 0x0c, 0x10, 0x00),
		body(0x10, 0x02),
		body(0x41, 0xe0, 0x00, 0x41, 0x05, 0x10, 0x00, 0x1a),
	)
	datas := section(0x0b,
		data([]byte{0x00}, "console_log\x00hi"),
		data([]byte{0x20}, "console_log\x00fired"),
		data([]byte{0xc0, 0x00}, "echo.7\x00hello"),
		data([]byte{0xe0, 0x00}, "nope\x00"),
	)
	return cat(wasmHeader, types, imports, funcs, memory, exports, code, datas)
}

// importsModule imports functions the runtime does not provide.
func importsModule() []byte {
	types := section(0x01, []byte{0x60, 0, 0})
	imports := section(0x02,
		funcImport("env", "fetch_secret", 0),
		funcImport("wasi_snapshot_preview1", "proc_exit", 0),
	)
	return cat(wasmHeader, types, imports)
}
