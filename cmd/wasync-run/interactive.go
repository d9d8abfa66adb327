package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasync/host"
)

type interactiveModel struct {
	err      error
	rt       *host.Runtime
	instance *host.Instance
	cfg      *host.Config
	send     func(tea.Msg)
	filename string
	lines    []string
	exports  []string
	view     viewport.Model
	input    textinput.Model
	ready    bool
	running  bool
}

type eventMsg host.Event

type loadedMsg struct {
	err     error
	rt      *host.Runtime
	inst    *host.Instance
	exports []string
}

type runDoneMsg struct {
	err    error
	export string
}

func newInteractiveModel(filename string, cfg *host.Config) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "export name"
	ti.Prompt = "call> "
	ti.Width = 40
	ti.Focus()

	return &interactiveModel{
		cfg:      cfg,
		filename: filename,
		input:    ti,
	}
}

// load creates the runtime and instance. Observer events reach the program
// through m.send.
func (m *interactiveModel) load() tea.Cmd {
	send := m.send
	return func() tea.Msg {
		ctx := context.Background()

		data, err := os.ReadFile(m.filename)
		if err != nil {
			return loadedMsg{err: err}
		}

		rt, err := host.New(ctx, m.cfg)
		if err != nil {
			return loadedMsg{err: err}
		}
		rt.Subscribe(host.ObserverFunc(func(e host.Event) {
			send(eventMsg(e))
		}))

		mod, err := rt.Load(ctx, data)
		if err != nil {
			rt.Close(ctx)
			return loadedMsg{err: err}
		}
		inst, err := mod.Instantiate(ctx)
		if err != nil {
			rt.Close(ctx)
			return loadedMsg{err: err}
		}
		return loadedMsg{rt: rt, inst: inst, exports: mod.Exports()}
	}
}

func (m *interactiveModel) run(export string) tea.Cmd {
	inst := m.instance
	return func() tea.Msg {
		ctx := context.Background()
		if export == m.cfg.EntryPoint {
			return runDoneMsg{export: export, err: inst.Run(ctx)}
		}
		if _, err := inst.Call(ctx, export); err != nil {
			return runDoneMsg{export: export, err: err}
		}
		return runDoneMsg{export: export, err: inst.Wait(ctx)}
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load())
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.close()
			return m, tea.Quit

		case "enter":
			export := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if export == "" || m.instance == nil || m.running {
				break
			}
			m.running = true
			m.append(helpStyle.Render("> " + export))
			cmds = append(cmds, m.run(export))
		}

	case tea.WindowSizeMsg:
		// title, blank line, input, help
		height := msg.Height - 4
		if !m.ready {
			m.view = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = height
		}
		m.refresh()

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.instance = msg.inst
		m.exports = msg.exports
		m.append(helpStyle.Render("exports: " + strings.Join(m.exports, ", ")))

	case eventMsg:
		if line, ok := formatEvent(host.Event(msg), true, true); ok {
			m.append(line)
		}

	case runDoneMsg:
		m.running = false
		if msg.err != nil {
			m.append(errorStyle.Render(fmt.Sprintf("%s: %v", msg.export, msg.err)))
		} else {
			m.append(helpStyle.Render(msg.export + " finished"))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.view, cmd = m.view.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) append(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *interactiveModel) refresh() {
	if !m.ready {
		return
	}
	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}

func (m *interactiveModel) close() {
	ctx := context.Background()
	if m.instance != nil {
		m.instance.Close(ctx)
	}
	if m.rt != nil {
		m.rt.Close(ctx)
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}
	if !m.ready || m.instance == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("wasync"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter call export • ↑/↓ scroll • esc quit"))
	return b.String()
}

func runInteractive(filename string, cfg *host.Config) error {
	m := newInteractiveModel(filename, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.send = p.Send
	_, err := p.Run()
	return err
}
