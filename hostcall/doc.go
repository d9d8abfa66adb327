// Package hostcall implements the guest side of the host call protocol.
//
// Every call is one contiguous message passed to the host's upload_bytes
// import:
//
//	name ++ 0x00 ++ payload
//
// The host answers with the number of response bytes available. For
// request/response calls the name carries the id of the buffer that receives
// the response, "<name>.<buffer id>", and the host writes its answer into that
// buffer before returning:
//
//	ch := hostcall.New(host, buffer.Default())
//	ch.Send("console_log", []byte("hello"))      // fire-and-forget
//	data := ch.Request("fetch", payload, 7)       // response copied from buffer 7
//	text, err := ch.RequestString("fetch", payload, 7)
//
// The channel performs no retries. A response larger than a buffer is a
// protocol violation and panics; invalid UTF-8 where text is requested is
// returned as an error.
//
// Decode is the host-side inverse of Encode and is used by the host runner to
// route calls.
package hostcall
