// Package tui renders the coordination dashboard: every loaded
// checklist with its tasks, countdowns, focus badges, live viewers, and
// claimants. It is a presentation-only consumer of the hub's projection;
// no coordination logic lives here.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benresonance-star/Task-Checker-sub001/internal/coordination"
	"github.com/benresonance-star/Task-Checker-sub001/internal/event"
	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
	"github.com/benresonance-star/Task-Checker-sub001/internal/util"
)

// engineMsg wraps a bus event for the bubbletea update loop.
type engineMsg struct {
	event event.Event
}

// row is one selectable task line, flattened from the instance trees.
type row struct {
	instanceID string
	task       model.Task
	section    string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	hub  *coordination.Hub
	keys keyMap
	help help.Model

	rows   []row
	cursor int
	width  int

	events chan event.Event
	subID  string

	lastWarning string
}

// NewModel creates the dashboard model and subscribes it to the bus.
// The subscription feeds a buffered channel; if the UI falls behind,
// events are dropped rather than blocking publishers.
func NewModel(hub *coordination.Hub, bus *event.Bus) *Model {
	m := &Model{
		hub:    hub,
		keys:   defaultKeyMap(),
		help:   help.New(),
		events: make(chan event.Event, 64),
	}
	m.subID = bus.SubscribeAll(func(e event.Event) {
		select {
		case m.events <- e:
		default:
		}
	})
	m.reload()
	return m
}

// Init starts listening for engine events.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return engineMsg{event: <-m.events}
	}
}

// reload flattens the projection into rows, keeping the cursor in range.
func (m *Model) reload() {
	m.rows = m.rows[:0]
	for _, in := range m.hub.Instances() {
		var walk func(sections []*model.Section, parent string)
		walk = func(sections []*model.Section, parent string) {
			for _, s := range sections {
				label := s.Title
				if label == "" {
					label = parent
				}
				for _, t := range s.Tasks {
					m.rows = append(m.rows, row{instanceID: in.ID, task: *t, section: label})
				}
				walk(s.Subsections, label)
			}
		}
		walk(in.Sections, in.Title)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles key presses and engine events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case engineMsg:
		if wf, ok := msg.event.(event.WriteFailedEvent); ok {
			m.lastWarning = fmt.Sprintf("write failed: %s %s", wf.Key, wf.Field)
		}
		m.reload()
		return m, m.waitForEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Focus):
		if r, ok := m.selected(); ok {
			m.report(m.hub.ToggleTaskFocus(model.FocusRef{
				InstanceID: r.instanceID,
				TaskID:     r.task.ID,
			}))
		}

	case key.Matches(msg, m.keys.Claim):
		if r, ok := m.selected(); ok {
			m.report(m.hub.ToggleActionSetTask(model.ActionSetItem{
				InstanceID: r.instanceID,
				TaskID:     r.task.ID,
			}))
		}

	case key.Matches(msg, m.keys.Timer):
		if r, ok := m.selected(); ok {
			m.report(m.hub.ToggleTaskTimer(r.task.ID))
		}

	case key.Matches(msg, m.keys.Reset):
		if r, ok := m.selected(); ok {
			m.report(m.hub.ResetTaskTimer(r.task.ID))
		}

	case key.Matches(msg, m.keys.Complete):
		if r, ok := m.selected(); ok {
			m.report(m.hub.ToggleTaskCompleted(r.task.ID))
		}
	}

	m.reload()
	return m, nil
}

func (m *Model) selected() (row, bool) {
	if len(m.rows) == 0 {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// report surfaces a mutation error in the status line.
func (m *Model) report(err error) {
	if err != nil {
		m.lastWarning = err.Error()
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("taskchecker"))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("no instances loaded"))
		b.WriteString("\n")
	}

	lastSection := ""
	for i, r := range m.rows {
		if r.section != lastSection {
			b.WriteString(sectionStyle.Render(r.section))
			b.WriteString("\n")
			lastSection = r.section
		}
		b.WriteString(m.renderRow(i, r))
		b.WriteString("\n")
	}

	if m.lastWarning != "" {
		b.WriteString(warnStyle.Render("! " + m.lastWarning))
		b.WriteString("\n")
	}

	b.WriteString(statusBarStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) renderRow(i int, r row) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	check := "[ ]"
	if r.task.Completed {
		check = "[x]"
	}

	title := r.task.Title
	if r.task.Completed {
		title = completedStyle.Render(title)
	}

	badges := []string{renderTimer(r.task.Timer)}

	ref := model.FocusRef{InstanceID: r.instanceID, TaskID: r.task.ID}
	if n := m.hub.ConcurrentFocusCount(ref); n > 0 {
		badge := fmt.Sprintf("focus:%d", n)
		if n >= 2 {
			badges = append(badges, multiUserStyle.Render(badge+"!"))
		} else {
			badges = append(badges, badgeStyle.Render(badge))
		}
	}

	if viewers := m.hub.LiveViewers(r.instanceID, r.task.ID); len(viewers) > 0 {
		badges = append(badges, badgeStyle.Render(fmt.Sprintf("viewing:%d", len(viewers))))
	}

	if claimants := m.hub.Claimants(r.task.ID); len(claimants) > 0 {
		badges = append(badges, mutedStyle.Render("claimed:"+strings.Join(claimants, ",")))
	}

	line := fmt.Sprintf("%s%s %s  %s", cursor, check, title, strings.Join(badges, "  "))
	if m.width > 0 {
		line = util.TruncateANSI(line, m.width)
	}
	return line
}

// renderTimer formats a countdown as mm:ss with its run state.
func renderTimer(t model.Timer) string {
	text := fmt.Sprintf("%02d:%02d", t.Remaining/60, t.Remaining%60)
	switch {
	case t.Running:
		return runningStyle.Render("▶ " + text)
	case t.Remaining == 0 && t.Duration > 0:
		return expiredStyle.Render("■ 00:00")
	default:
		return mutedStyle.Render("· " + text)
	}
}
