package host

import (
	"github.com/tetratelabs/wazero/api"

	wasync "github.com/wippyai/wasync"
	"github.com/wippyai/wasync/errors"
)

// Memory adapts a wazero api.Memory to wasync.Memory.
type Memory struct {
	mem api.Memory
}

var _ wasync.Memory = (*Memory)(nil)
var _ wasync.MemorySizer = (*Memory)(nil)

// WrapMemory wraps mem. It returns nil for a module without memory.
func WrapMemory(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Read returns a copy of length bytes at offset.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfBounds("read", offset, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data to offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.outOfBounds("read", offset, 4)
	}
	return v, nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.outOfBounds("write", offset, 4)
	}
	return nil
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

func (m *Memory) outOfBounds(op string, offset, length uint32) error {
	return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
		Name(op).
		Value(offset).
		Detail("memory %s out of bounds: offset=%d, length=%d, size=%d", op, offset, length, m.mem.Size()).
		Build()
}
