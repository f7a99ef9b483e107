// Package tui is the terminal front end of the todo client.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/example/todo-app/client"
)

const (
	labelAdd    = "Add Todo"
	labelUpdate = "Update Todo"
	labelCancel = "Cancel"

	msgLoading       = "Loading todos..."
	msgEmpty         = "No todos yet. Add one above!"
	msgConfirmDelete = "Are you sure you want to delete this todo? (y/n)"

	createdLayout = "Jan 2, 2006 3:04 PM"
)

type focus int

const (
	focusList focus = iota
	focusTitle
	focusDescription
)

// resultMsg delivers a finished client task.
type resultMsg struct {
	result client.Result
}

// Model is the bubbletea model. The todo cache and form state live in
// client.View; the model only adds cursor, focus and widgets.
type Model struct {
	ctx    context.Context
	api    client.TodoAPI
	view   *client.View
	logger *log.Logger

	title       textinput.Model
	description textinput.Model
	focus       focus
	cursor      int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
}

// New creates a model driving api. A nil logger discards output.
func New(ctx context.Context, api client.TodoAPI, logger *log.Logger) Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	title := textinput.New()
	title.Prompt = "> "
	title.Placeholder = "Todo title..."
	title.CharLimit = 255

	description := textinput.New()
	description.Prompt = "> "
	description.Placeholder = "Description (optional)..."
	description.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	return Model{
		ctx:         ctx,
		api:         api,
		view:        client.NewView(),
		logger:      logger,
		title:       title,
		description: description,
		spinner:     sp,
		help:        help.New(),
		keys:        defaultKeys(),
	}
}

// Init fetches the list once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(m.view.Load()))
}

// run wraps a task as a command. A nil task yields a nil command.
func (m Model) run(task client.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return resultMsg{result: task(ctx, api)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case resultMsg:
		m.apply(msg.result)
		return m, nil

	case spinner.TickMsg:
		if !m.view.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.view.PendingDelete != 0 {
			return m.updateConfirm(msg)
		}
		if m.focus != focusList {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Todos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.setFocus(focusTitle)
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok {
			m.view.StartEdit(t)
			m.syncInputs()
			m.title.CursorEnd()
			m.setFocus(focusTitle)
		}
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.run(m.view.Toggle(t))
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.view.RequestDelete(t)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.view.Title = m.title.Value()
		m.view.Description = m.description.Value()
		task := m.view.Submit()
		if task == nil {
			return m, nil
		}
		return m, m.run(task)
	case key.Matches(msg, m.keys.NextField):
		if m.focus == focusTitle {
			m.setFocus(focusDescription)
		} else {
			m.setFocus(focusTitle)
		}
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		if m.view.Editing() {
			m.view.CancelEdit()
			m.syncInputs()
		}
		m.setFocus(focusList)
		return m, nil
	}
	return m.updateInputs(msg)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.run(m.view.ConfirmDelete())
	case key.Matches(msg, m.keys.Deny):
		m.view.CancelDelete()
	}
	return m, nil
}

// updateInputs forwards msg to the focused text input.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *Model) apply(r client.Result) {
	wasEditing := m.view.Editing()
	m.view.Title = m.title.Value()
	m.view.Description = m.description.Value()

	m.view.Apply(r)
	if err := resultErr(r); err != nil {
		m.logger.Error("request failed", "action", fmt.Sprintf("%T", r), "err", err)
	} else {
		m.logger.Debug("request succeeded", "action", fmt.Sprintf("%T", r))
	}

	m.syncInputs()
	if wasEditing && !m.view.Editing() {
		m.setFocus(focusList)
	}
	m.clampCursor()
}

func resultErr(r client.Result) error {
	switch r := r.(type) {
	case client.Loaded:
		return r.Err
	case client.Created:
		return r.Err
	case client.Replaced:
		return r.Err
	case client.Toggled:
		return r.Err
	case client.Deleted:
		return r.Err
	}
	return nil
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.title.Blur()
	m.description.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusDescription:
		m.description.Focus()
	}
}

func (m *Model) syncInputs() {
	m.title.SetValue(m.view.Title)
	m.description.SetValue(m.view.Description)
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.Todos) {
		m.cursor = len(m.view.Todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (int64, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Todos) {
		return 0, false
	}
	return m.view.Todos[m.cursor].ID, true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Todo Application"))
	b.WriteString("\n\n")

	if m.view.Err != "" {
		b.WriteString(errorStyle.Render(m.view.Err))
		b.WriteString("\n\n")
	}

	b.WriteString(m.formView())
	b.WriteString("\n\n")

	switch {
	case m.view.Loading:
		b.WriteString(m.spinner.View() + " " + msgLoading)
	case len(m.view.Todos) == 0:
		b.WriteString(mutedStyle.Render(msgEmpty))
	default:
		b.WriteString(m.listView())
	}
	b.WriteString("\n\n")

	if m.view.PendingDelete != 0 {
		b.WriteString(warnStyle.Render(msgConfirmDelete))
	} else if m.focus == focusList {
		b.WriteString(m.help.View(listHelp{m.keys}))
	} else {
		b.WriteString(m.help.View(formHelp{m.keys}))
	}

	return panelStyle.Render(b.String())
}

func (m Model) formView() string {
	label := labelAdd
	if m.view.Editing() {
		label = labelUpdate
	}

	lines := []string{
		m.title.View(),
		m.description.View(),
		accentStyle.Render("[enter] " + label),
	}
	if m.view.Editing() {
		lines[2] += mutedStyle.Render("  [esc] " + labelCancel)
	}

	style := formStyle
	if m.focus != focusList {
		style = focusedFormStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) listView() string {
	rows := make([]string, 0, len(m.view.Todos))
	for i, t := range m.view.Todos {
		box := mutedStyle.Render(boxUnchecked)
		title := t.Title
		if t.Completed {
			box = successStyle.Render(boxChecked)
			title = doneStyle.Render(title)
		}

		prefix := "  "
		if i == m.cursor && m.focus == focusList {
			prefix = selectedStyle.Render("> ")
		}

		row := fmt.Sprintf("%s%s %s", prefix, box, title)
		if t.Description != "" {
			row += "\n    " + t.Description
		}
		row += "\n    " + mutedStyle.Render("Created: "+t.CreatedAt.Local().Format(createdLayout))
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}
