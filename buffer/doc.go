// Package buffer implements the guest-side buffer table.
//
// Buffers are fixed-capacity byte arrays addressed by small integer ids. The
// host writes call responses into them (after resolving their address through
// the get_buffer_pointer export) and the guest copies the reported number of
// bytes back out:
//
//	buf := buffer.Get(7)      // created zero-filled on first access
//	data := buffer.Slice(7, n) // owned copy of the first n bytes
//
// A buffer's storage never moves once created, so the address handed to the
// host stays valid until Delete. Buffers are never shrunk; reuse overwrites
// their contents.
package buffer
