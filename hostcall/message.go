package hostcall

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/wippyai/wasync/errors"
)

// Separator terminates the function name in a message.
const Separator byte = 0x00

// Call is a decoded guest message.
type Call struct {
	Name      string
	Payload   []byte
	BufferID  uint32
	HasBuffer bool
}

// Encode builds the wire message for a call.
func Encode(name string, payload []byte) []byte {
	msg := make([]byte, len(name)+1+len(payload))
	n := copy(msg, name)
	msg[n] = Separator
	copy(msg[n+1:], payload)
	return msg
}

// RequestName appends the response buffer id to a function name.
func RequestName(name string, bufferID uint32) string {
	return name + "." + strconv.FormatUint(uint64(bufferID), 10)
}

// Decode splits a wire message into its call. A name whose suffix after the
// last '.' is a decimal number addresses a response buffer.
func Decode(msg []byte) (Call, error) {
	i := bytes.IndexByte(msg, Separator)
	if i < 0 {
		return Call{}, errors.InvalidData(errors.PhaseDecode, "", "message has no name separator")
	}

	call := Call{
		Name:    string(msg[:i]),
		Payload: msg[i+1:],
	}
	if call.Name == "" {
		return Call{}, errors.InvalidData(errors.PhaseDecode, "", "message has an empty function name")
	}

	if dot := strings.LastIndexByte(call.Name, '.'); dot >= 0 {
		id, err := strconv.ParseUint(call.Name[dot+1:], 10, 32)
		if err == nil {
			call.BufferID = uint32(id)
			call.HasBuffer = true
			call.Name = call.Name[:dot]
		}
	}

	return call, nil
}
