// Package tui holds the interactive screens. The controller detail screen
// shows the four circuit switches: toggles update local state optimistically
// on HTTP 200 and leave it untouched on any failure.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruphautomations/ruphctl/internal/app"
	"github.com/ruphautomations/ruphctl/internal/device"
	"github.com/ruphautomations/ruphctl/internal/domain"
	"github.com/ruphautomations/ruphctl/internal/guard"
)

type phase int

const (
	phaseChecking phase = iota
	phaseLoading
	phaseReady
	phaseUnauthorized
	phaseFailed
)

type guardResultMsg struct {
	status guard.Status
}

type controllerLoadedMsg struct {
	controller *domain.Controller
	err        error
}

type liveStateMsg struct {
	state device.DisplayState
	found bool
	err   error
}

type toggleResultMsg struct {
	circuit   int
	displayOn bool
	err       error
}

type DetailModel struct {
	app          *app.App
	controllerID int

	phase      phase
	controller *domain.Controller
	switches   device.DisplayState
	pending    [domain.NumCircuits]bool
	cursor     int
	notice     string
	failure    string
}

func NewDetailModel(a *app.App, controllerID int) DetailModel {
	return DetailModel{app: a, controllerID: controllerID, phase: phaseChecking}
}

// Unauthorized reports whether the screen exited because the guard sent the
// user back to login.
func (m DetailModel) Unauthorized() bool { return m.phase == phaseUnauthorized }

func (m DetailModel) Init() tea.Cmd {
	return m.checkSession
}

func (m DetailModel) checkSession() tea.Msg {
	status, _ := guard.Check(m.app.Store, m.app.Logger)
	return guardResultMsg{status: status}
}

func (m DetailModel) loadController() tea.Msg {
	c, err := m.app.API.GetController(context.Background(), m.controllerID)
	return controllerLoadedMsg{controller: c, err: err}
}

func (m DetailModel) loadLiveState() tea.Msg {
	state, found, err := m.app.Device.ReadLiveState(context.Background())
	return liveStateMsg{state: state, found: found, err: err}
}

func (m DetailModel) toggle(circuit int, displayOn bool) tea.Cmd {
	return func() tea.Msg {
		endpoint, err := m.controller.CircuitEndpoint(circuit)
		if err != nil {
			return toggleResultMsg{circuit: circuit, err: err}
		}
		err = m.app.Device.Toggle(context.Background(), endpoint, circuit, displayOn)
		return toggleResultMsg{circuit: circuit, displayOn: displayOn, err: err}
	}
}

func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case guardResultMsg:
		if msg.status != guard.Authorized {
			m.phase = phaseUnauthorized
			return m, tea.Quit
		}
		m.phase = phaseLoading
		return m, tea.Batch(m.loadController, m.loadLiveState)

	case controllerLoadedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.failure = "Failed to load controller."
			return m, nil
		}
		m.controller = msg.controller
		m.phase = phaseReady
		return m, nil

	case liveStateMsg:
		if msg.err != nil {
			m.notice = "Live state unavailable."
			return m, nil
		}
		if msg.found {
			m.switches = msg.state
		}
		return m, nil

	case toggleResultMsg:
		m.pending[msg.circuit-1] = false
		if msg.err != nil {
			// failed toggle leaves the switch exactly where it was
			m.notice = "Failed to toggle circuit."
			return m, nil
		}
		m.switches[msg.circuit-1] = msg.displayOn
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m DetailModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < domain.NumCircuits-1 {
			m.cursor++
		}
	case "1", "2", "3", "4":
		m.cursor = int(msg.String()[0] - '1')
		return m.startToggle()
	case " ", "enter":
		return m.startToggle()
	case "r":
		if m.phase == phaseReady {
			return m, m.loadLiveState
		}
	}
	return m, nil
}

func (m DetailModel) startToggle() (tea.Model, tea.Cmd) {
	if m.phase != phaseReady {
		return m, nil
	}
	circuit := m.cursor + 1
	if m.pending[m.cursor] {
		// this circuit already has a write in flight; others stay usable
		return m, nil
	}
	m.pending[m.cursor] = true
	requested := !m.switches[m.cursor]
	return m, m.toggle(circuit, requested)
}

func (m DetailModel) View() string {
	var b strings.Builder
	switch m.phase {
	case phaseChecking:
		return subtleStyle.Render("Checking session...") + "\n"
	case phaseUnauthorized:
		return noticeStyle.Render("Session expired, please log in again.") + "\n"
	case phaseLoading:
		return subtleStyle.Render("Loading controller...") + "\n"
	case phaseFailed:
		return noticeStyle.Render(m.failure) + "\n" + helpStyle.Render("q to quit") + "\n"
	}

	b.WriteString(titleStyle.Render(m.controller.ControllerName))
	b.WriteString(subtleStyle.Render("  " + m.controller.ControllerID))
	b.WriteString("\n\n")
	for i := 0; i < domain.NumCircuits; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		state := offStyle.Render("○ off")
		if m.switches[i] {
			state = onStyle.Render("● on")
		}
		suffix := ""
		if m.pending[i] {
			suffix = subtleStyle.Render("  ...")
		}
		b.WriteString(fmt.Sprintf("%sCircuit %d  %s%s\n", cursor, i+1, state, suffix))
	}
	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select · space toggle · 1-4 toggle circuit · r refresh · q quit") + "\n")
	return b.String()
}
