package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasync/host"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	timerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0C674"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// formatEvent renders e as one output line. Calls and timers are only shown
// when verbose.
func formatEvent(e host.Event, verbose, styled bool) (string, bool) {
	var (
		text  string
		style lipgloss.Style
	)
	switch e.Type {
	case host.EventLog:
		text, style = e.Message, logStyle
	case host.EventError:
		text, style = e.Message, errorStyle
	case host.EventCall:
		if !verbose {
			return "", false
		}
		if e.HasBuffer {
			text = fmt.Sprintf("call %s -> buffer %d (%d bytes)", e.Name, e.BufferID, e.Size)
		} else {
			text = fmt.Sprintf("call %s", e.Name)
		}
		style = tagStyle
	case host.EventTimerRequested:
		if !verbose {
			return "", false
		}
		text, style = fmt.Sprintf("timer %d requested (%s)", e.Listener, e.Delay), timerStyle
	case host.EventTimerFired:
		if !verbose {
			return "", false
		}
		text, style = fmt.Sprintf("timer %d fired", e.Listener), timerStyle
	default:
		return "", false
	}

	tag := "[wasm]"
	if !styled {
		return tag + " " + text, true
	}
	return tagStyle.Render(tag) + " " + style.Render(text), true
}
