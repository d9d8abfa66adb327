package buffer

import (
	"strconv"

	"github.com/puzpuzpuz/xsync/v2"

	"github.com/wippyai/wasync/errors"
)

// Capacity is the size in bytes of every buffer.
const Capacity = 128_000

// Buffer is the fixed backing storage for one buffer id.
type Buffer [Capacity]byte

// Table maps buffer ids to buffers. Safe for concurrent use.
type Table struct {
	m *xsync.MapOf[uint32, *Buffer]
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		m: xsync.NewIntegerMapOf[uint32, *Buffer](),
	}
}

// Get returns the buffer for id, creating it zero-filled if absent.
// Repeated calls return the same storage.
func (t *Table) Get(id uint32) *Buffer {
	buf, _ := t.m.LoadOrCompute(id, func() *Buffer {
		return new(Buffer)
	})
	return buf
}

// Slice copies the first n bytes of buffer id.
func (t *Table) Slice(id uint32, n int) []byte {
	if n < 0 || n > Capacity {
		panic(errors.OutOfBounds(errors.PhaseBuffer, strconv.FormatUint(uint64(id), 10), n, Capacity))
	}
	buf := t.Get(id)
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}

// Delete removes buffer id and returns its prior contents.
// Returns false if the buffer was never created.
func (t *Table) Delete(id uint32) (Buffer, bool) {
	buf, ok := t.m.LoadAndDelete(id)
	if !ok {
		return Buffer{}, false
	}
	return *buf, true
}

// Contains reports whether buffer id exists.
func (t *Table) Contains(id uint32) bool {
	_, ok := t.m.Load(id)
	return ok
}

// Len returns the number of live buffers.
func (t *Table) Len() int {
	return t.m.Size()
}

var defaultTable = NewTable()

// Default returns the process-wide table.
func Default() *Table {
	return defaultTable
}

// Get returns buffer id from the process-wide table.
func Get(id uint32) *Buffer {
	return defaultTable.Get(id)
}

// Slice copies n bytes of buffer id from the process-wide table.
func Slice(id uint32, n int) []byte {
	return defaultTable.Slice(id, n)
}

// Delete removes buffer id from the process-wide table.
func Delete(id uint32) (Buffer, bool) {
	return defaultTable.Delete(id)
}
