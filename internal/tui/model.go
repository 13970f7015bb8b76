// Package tui is the interactive terminal front end for a task store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasklist/internal/service"
	"tasklist/internal/store"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
)

// Form fields.
const (
	fieldTitle = iota
	fieldDescription
)

// changedMsg reports that the store state changed.
type changedMsg struct{}

// noteMsg reports that the notification was shown or hidden.
type noteMsg struct{}

// opDoneMsg carries the result of a store operation run as a command.
type opDoneMsg struct {
	kind store.ActionKind
	err  error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noteBaseStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Model is the bubbletea model.
type Model struct {
	ctx   context.Context
	store *store.Store

	state       store.State
	note        store.Notification
	noteVisible bool

	cursor  int
	mode    mode
	field   int
	title   textinput.Model
	desc    textinput.Model
	spinner spinner.Model
	status  string
}

// New creates a model for st.
func New(ctx context.Context, st *store.Store) Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 256
	title.Width = 40

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 1024
	desc.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		store:   st,
		state:   st.Snapshot(),
		title:   title,
		desc:    desc,
		spinner: sp,
	}
	m.note, m.noteVisible = st.Notifier().Current()
	return m
}

// Run starts the interactive UI and blocks until the user quits.
func Run(ctx context.Context, st *store.Store) error {
	p := newProgram(ctx, st, tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// newProgram builds a program whose model follows st.
//
// Store hooks also fire from inside Update, on the event loop, which is the
// only reader of the program's message channel. Sends are therefore made
// from their own goroutine, and messages carry no state: the model re-reads
// the store when one arrives, so delivery order does not matter.
func newProgram(ctx context.Context, st *store.Store, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, st), opts...)

	st.OnChange(func() { go p.Send(changedMsg{}) })
	st.Notifier().RegisterHandler(func(store.Notification, bool) {
		go p.Send(noteMsg{})
	})
	return p
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		// The failure is recorded in the store and shown as a notification.
		_ = m.store.Load(m.ctx)
		return changedMsg{}
	}
}

func (m Model) opCmd(kind store.ActionKind, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{kind: kind, err: op(m.ctx)}
	}
}

// busy reports whether mutations are disabled.
func (m Model) busy() bool {
	return m.state.Action.Active()
}

func (m Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return service.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

func (m *Model) refresh() {
	m.state = m.store.Snapshot()
	m.cursor = clampCursor(m.cursor, len(m.state.Tasks))
	m.note, m.noteVisible = m.store.Notifier().Current()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.refresh()
		return m, nil
	case noteMsg:
		m.note, m.noteVisible = m.store.Notifier().Current()
		return m, nil
	case opDoneMsg:
		return m.settled(msg), nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if w := msg.Width - 10; w > 10 {
			m.title.Width = w
			m.desc.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg.String())
		default:
			return m.updateList(msg.String())
		}
	}
	return m, nil
}

// settled applies the outcome of a finished operation.
func (m Model) settled(msg opDoneMsg) Model {
	m.refresh()
	m.status = ""

	switch {
	case errors.Is(msg.err, store.ErrEmptyTitle):
		m.status = "Title cannot be empty"
	case errors.Is(msg.err, store.ErrActionInFlight):
		m.status = "Wait for the current change to finish"
	case errors.Is(msg.err, store.ErrTaskNotFound):
		m.status = "Task no longer exists"
		m.closeForm()
	case msg.err == nil && (msg.kind == store.ActionAdd || msg.kind == store.ActionEdit):
		m.closeForm()
		if msg.kind == store.ActionAdd {
			m.cursor = clampCursor(len(m.state.Tasks)-1, len(m.state.Tasks))
		}
	}
	return m
}

func (m Model) updateList(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.state.Tasks))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.state.Tasks))
	case "r":
		return m, m.loadCmd()
	case "esc":
		m.store.Notifier().Dismiss()
		m.store.ClearErr()
		m.refresh()
	case "a":
		m.openForm(modeAdd, m.store.Draft())
		return m, textinput.Blink
	}

	if m.busy() {
		return m, nil
	}
	task, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch key {
	case " ", "x":
		id := task.ID
		return m, m.opCmd(store.ActionToggle, func(ctx context.Context) error {
			return m.store.ToggleComplete(ctx, id)
		})
	case "e":
		if err := m.store.BeginEdit(task.ID); err != nil {
			m.status = "Task no longer exists"
			return m, nil
		}
		m.openForm(modeEdit, service.Draft{Title: task.Title, Description: task.Description})
		return m, textinput.Blink
	case "d":
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? (y/n)", task.Title)
	}
	return m, nil
}

func (m Model) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	m.mode = modeList
	m.status = ""
	if key != "y" && key != "Y" {
		m.status = "Delete cancelled"
		return m, nil
	}
	task, ok := m.selected()
	if !ok || m.busy() {
		return m, nil
	}
	id := task.ID
	return m, m.opCmd(store.ActionDelete, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeAdd {
			m.store.SetDraft(m.draft())
		} else {
			m.store.CancelEdit()
		}
		m.closeForm()
		m.refresh()
		return m, nil
	case "tab", "shift+tab":
		m.focus(1 - m.field)
		return m, textinput.Blink
	case "enter":
		if m.busy() {
			m.status = "Wait for the current change to finish"
			return m, nil
		}
		draft := m.draft()
		if draft.Blank() {
			m.status = "Title cannot be empty"
			return m, nil
		}
		if m.mode == modeAdd {
			m.store.SetDraft(draft)
			return m, m.opCmd(store.ActionAdd, func(ctx context.Context) error {
				return m.store.Add(ctx, draft)
			})
		}
		id := m.store.Editing()
		return m, m.opCmd(store.ActionEdit, func(ctx context.Context) error {
			return m.store.Edit(ctx, id, draft)
		})
	}

	var cmd tea.Cmd
	if m.field == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

func (m Model) draft() service.Draft {
	return service.Draft{Title: m.title.Value(), Description: m.desc.Value()}
}

func (m *Model) openForm(md mode, d service.Draft) {
	m.mode = md
	m.status = ""
	m.title.SetValue(d.Title)
	m.title.CursorEnd()
	m.desc.SetValue(d.Description)
	m.desc.CursorEnd()
	m.focus(fieldTitle)
}

func (m *Model) closeForm() {
	m.mode = modeList
	m.title.SetValue("")
	m.desc.SetValue("")
	m.title.Blur()
	m.desc.Blur()
}

func (m *Model) focus(field int) {
	m.field = field
	if field == fieldTitle {
		m.title.Focus()
		m.desc.Blur()
	} else {
		m.desc.Focus()
		m.title.Blur()
	}
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks"))
	if m.state.Loading {
		b.WriteString(" " + m.spinner.View() + faintStyle.Render("loading"))
	}
	b.WriteString("\n\n")

	if len(m.state.Tasks) == 0 && !m.state.Loading {
		b.WriteString(faintStyle.Render("No tasks yet. Press 'a' to add one."))
		b.WriteString("\n")
	}
	for i, task := range m.state.Tasks {
		b.WriteString(m.renderRow(i, task))
	}

	if m.mode == modeAdd || m.mode == modeEdit {
		b.WriteString("\n")
		if m.mode == modeAdd {
			b.WriteString(titleStyle.Render("New task"))
		} else {
			b.WriteString(titleStyle.Render("Edit task"))
		}
		b.WriteString("\n")
		b.WriteString(m.title.View())
		b.WriteString("\n")
		b.WriteString(m.desc.View())
		b.WriteString("\n")
	}

	if m.state.Err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.state.Err))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	if m.noteVisible {
		b.WriteString("\n")
		b.WriteString(renderNote(m.note))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) renderRow(i int, task service.Task) string {
	marker := "  "
	if i == m.cursor && m.mode == modeList {
		marker = cursorStyle.Render("> ")
	}

	box := "[ ]"
	if task.Completed {
		box = "[x]"
	}

	title := task.Title
	switch {
	case task.Completed:
		title = doneStyle.Render(title)
	case m.busy() && !m.state.Action.Targets(task.ID):
		title = faintStyle.Render(title)
	}

	line := fmt.Sprintf("%s%s %s", marker, box, title)
	if m.state.Action.Targets(task.ID) || (m.state.Action.Kind == store.ActionAdd && store.IsTemporaryID(task.ID)) {
		line += " " + m.spinner.View() + faintStyle.Render(actionLabel(m.state.Action.Kind))
	}
	if task.Description != "" {
		line += "\n      " + faintStyle.Render(task.Description)
	}
	return line + "\n"
}

func (m Model) helpText() string {
	switch m.mode {
	case modeAdd, modeEdit:
		return "enter: save  tab: next field  esc: cancel"
	case modeConfirmDelete:
		return "y: delete  any other key: cancel"
	}
	if m.busy() {
		return "saving...  j/k: move  r: reload  q: quit"
	}
	return "a: add  space: toggle  e: edit  d: delete  r: reload  esc: dismiss  q: quit"
}

func renderNote(n store.Notification) string {
	style := successStyle
	if n.Severity == store.SeverityError {
		style = errorStyle
	}
	return noteBaseStyle.Inherit(style).Render(n.Message)
}

func actionLabel(k store.ActionKind) string {
	switch k {
	case store.ActionAdd:
		return "adding"
	case store.ActionDelete:
		return "deleting"
	default:
		return "saving"
	}
}

func clampCursor(cursor, length int) int {
	if length == 0 {
		return 0
	}
	if cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}
