//go:build wasip1

package guest

//go:wasmexport trigger_timeout
func triggerTimeout(listenerID uint32) {
	defer Recover()
	TriggerTimeout(listenerID)
}

// Called by the host while it is servicing upload_bytes.
//
//go:wasmexport get_buffer_pointer
func getBufferPointer(id uint32) uint32 {
	defer Recover()
	return uint32(BufferPointer(id))
}
