// Package host runs wasync guests on wazero.
//
// The runtime provides the guest's "env" imports. upload_bytes decodes the
// name\0payload message and dispatches it to a registered Func; calls whose
// name carries a buffer id get the Func's result written into that guest
// buffer, located through the get_buffer_pointer export. request_timeout
// arms a host timer; fired timers are delivered one at a time through the
// trigger_timeout export by Instance.Run or Instance.Wait.
//
// Guest calls into an instance are serialized. Timers fire on their own
// goroutines but are only delivered from the goroutine running Wait.
package host
