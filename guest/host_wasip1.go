//go:build wasip1

package guest

import (
	"runtime"
	"unsafe"
)

//go:wasmimport env upload_bytes
func uploadBytes(ptr unsafe.Pointer, size uint32) uint32

//go:wasmimport env request_timeout
func requestTimeout(listenerID, millis uint32)

//go:wasmimport env seconds_now
func secondsNow() float64

// wasmHost calls the functions imported from the embedder.
type wasmHost struct{}

func (wasmHost) UploadBytes(msg []byte) uint32 {
	if len(msg) == 0 {
		return uploadBytes(nil, 0)
	}
	n := uploadBytes(unsafe.Pointer(&msg[0]), uint32(len(msg)))
	runtime.KeepAlive(msg)
	return n
}

func (wasmHost) RequestTimeout(listenerID, millis uint32) {
	requestTimeout(listenerID, millis)
}

func (wasmHost) SecondsNow() float64 {
	return secondsNow()
}

func init() {
	Install(wasmHost{})
}
