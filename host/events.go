package host

import (
	"time"
)

// EventType identifies what an Event reports.
type EventType uint8

const (
	EventLog            EventType = iota // console_log
	EventError                           // console_error
	EventCall                            // any other host procedure
	EventTimerRequested                  // request_timeout
	EventTimerFired                      // trigger_timeout about to be called
)

func (t EventType) String() string {
	switch t {
	case EventLog:
		return "log"
	case EventError:
		return "error"
	case EventCall:
		return "call"
	case EventTimerRequested:
		return "timer_requested"
	case EventTimerFired:
		return "timer_fired"
	default:
		return "unknown"
	}
}

// Event is a notification about guest activity.
type Event struct {
	Time      time.Time
	Instance  string
	Name      string // procedure name, without buffer suffix
	Message   string // console text
	Delay     time.Duration
	Listener  uint32
	BufferID  uint32
	Size      int // response bytes written
	Type      EventType
	HasBuffer bool
}

// Observer receives events. Observers are called synchronously from the
// goroutine running the guest and must not call back into the instance.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}
