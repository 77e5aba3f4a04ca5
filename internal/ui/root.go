package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/quickadd"
	"github.com/dori/duelist/internal/transfer"
	"github.com/dori/duelist/internal/ui/theme"
)

// Options wires the model to things outside the session
type Options struct {
	CountdownInterval time.Duration
	DeadlineInterval  time.Duration

	// Deliver receives every batch of deadline notices, e.g. for desktop popups
	Deliver func([]deadline.Notice)
	// SaveTheme persists the theme preference
	SaveTheme func(name string) error
	// ExportDir is where ctrl+e writes; empty means the working directory
	ExportDir string
}

// Model is the main application model: one filtered task list with its
// input modes, a countdown tick chain and a deadline tick chain.
type Model struct {
	session *app.Session
	opts    Options
	keys    KeyMap
	help    help.Model
	input   textinput.Model
	notes   textarea.Model
	width   int
	height  int

	mode         Mode
	cursor       int
	offset       int
	targetID     string // task being edited, deleted or shown
	prevSearch   string
	details      *model.Task
	countdownGen uint64

	statusMsg   string
	statusLevel deadline.Severity
}

// New builds the model for an opened app and applies its stored theme
func New(a *app.App) Model {
	ctx := context.Background()
	if t, ok := theme.ByName(a.Theme(ctx)); ok {
		theme.SetTheme(t)
	}
	return NewModel(a.Session, Options{
		CountdownInterval: a.Config.CountdownEvery(),
		DeadlineInterval:  a.Config.DeadlineEvery(),
		Deliver:           a.Deliver,
		SaveTheme: func(name string) error {
			return a.SetTheme(ctx, name)
		},
	})
}

// Run starts the TUI on the alternate screen and blocks until it exits
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewModel creates a model over session
func NewModel(session *app.Session, opts Options) Model {
	if opts.CountdownInterval <= 0 {
		opts.CountdownInterval = countdown.Interval
	}
	if opts.DeadlineInterval <= 0 {
		opts.DeadlineInterval = deadline.Interval
	}

	ti := textinput.New()
	ti.CharLimit = 512

	ta := textarea.New()
	ta.Placeholder = "Notes..."
	ta.ShowLineNumbers = false

	h := help.New()

	return Model{
		session:      session,
		opts:         opts,
		keys:         DefaultKeyMap(),
		help:         h,
		input:        ti,
		notes:        ta,
		countdownGen: session.CountdownGeneration(),
	}
}

// Init starts the countdown chain, the deadline chain and the warning listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.countdownTick(m.countdownGen),
		m.deadlineTick(),
		waitForWarning(m.session.Warnings()),
	)
}

func (m Model) countdownTick(gen uint64) tea.Cmd {
	return tea.Tick(m.opts.CountdownInterval, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

func (m Model) deadlineTick() tea.Cmd {
	return tea.Tick(m.opts.DeadlineInterval, func(time.Time) tea.Msg {
		return deadlineTickMsg{}
	})
}

func waitForWarning(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		return warningMsg{err: <-ch}
	}
}

// syncCountdown starts a tick chain for a new countdown generation. The old
// chain stops on its next tick since its generation is stale.
func (m *Model) syncCountdown() tea.Cmd {
	gen := m.session.CountdownGeneration()
	if gen == m.countdownGen {
		return nil
	}
	m.countdownGen = gen
	return m.countdownTick(gen)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 6
		m.notes.SetWidth(msg.Width - 6)
		m.notes.SetHeight(max(3, msg.Height-10))
		m.ensureCursorVisible()
		return m, nil

	case countdownTickMsg:
		if _, ok := m.session.TickCountdown(msg.gen); !ok {
			return m, nil
		}
		if m.session.CountdownActive() {
			return m, m.countdownTick(msg.gen)
		}
		return m, nil

	case deadlineTickMsg:
		m.announce(m.session.CheckDeadlines())
		return m, m.deadlineTick()

	case warningMsg:
		m.setStatus(msg.err.Error(), deadline.SeverityWarning)
		return m, waitForWarning(m.session.Warnings())

	case detailsLoadedMsg:
		if m.mode != ModeDetails || msg.id != m.targetID {
			return m, nil
		}
		if msg.err != nil {
			m.mode = ModeNormal
			m.setError(msg.err)
			return m, nil
		}
		t := msg.task
		m.details = &t
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("Exported to "+msg.path, deadline.SeverityInfo)
		}
		return m, nil

	case importReadMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		n, err := m.session.Import(context.Background(), bytes.NewReader(msg.data))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.cursor, m.offset = 0, 0
		m.setStatus(fmt.Sprintf("Imported %d tasks from %s", n, msg.path), deadline.SeverityInfo)
		return m, m.syncCountdown()

	case themeSavedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("Theme: "+msg.name, deadline.SeverityInfo)
		}
		return m, nil

	case ErrorMsg:
		m.setError(msg.Err)
		return m, nil

	case StatusMsg:
		m.setStatus(msg.Message, deadline.SeverityInfo)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeNotes {
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		return m, cmd
	}
	if m.mode.IsInput() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits; q only outside text fields
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.ThemeToggle) {
		return m, m.toggleTheme()
	}

	switch m.mode {
	case ModeAdd:
		return m.handleAddMode(msg)
	case ModeEdit:
		return m.handleEditMode(msg)
	case ModeSearch:
		return m.handleSearchMode(msg)
	case ModeNotes:
		return m.handleNotesMode(msg)
	case ModeImport:
		return m.handleImportMode(msg)
	case ModeConfirmDelete:
		return m.handleDeleteConfirm(msg)
	case ModeDetails, ModeHelp:
		if key.Matches(msg, m.keys.Back, m.keys.Quit, m.keys.Help) {
			m.mode = ModeNormal
			m.details = nil
		}
		return m, nil
	}

	return m.handleNormalMode(msg)
}

func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	tasks := m.session.View()
	m.clampCursor()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(0, len(tasks)-1)

	case key.Matches(msg, m.keys.Add):
		m.mode = ModeAdd
		m.input.Reset()
		m.input.Placeholder = "Title @tag !high due:tomorrow at:17:00 -- notes"
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Search):
		m.mode = ModeSearch
		m.prevSearch = m.session.Filters().Search
		m.input.Placeholder = "Search title, notes, tags..."
		m.input.SetValue(m.prevSearch)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.PriorityFilter):
		m.session.SetPriorityFilter(m.session.Filters().Priority.Next())
		m.clampCursor()
		return m, m.syncCountdown()
	case key.Matches(msg, m.keys.StatusFilter):
		m.session.SetStatusFilter(m.session.Filters().Status.Next())
		m.clampCursor()
		return m, m.syncCountdown()
	case key.Matches(msg, m.keys.Sort):
		m.session.SetSort(m.session.Filters().SortBy.Next())
		return m, m.syncCountdown()
	case key.Matches(msg, m.keys.ClearFilters):
		m.session.ClearFilters()
		m.clampCursor()
		return m, m.syncCountdown()

	case key.Matches(msg, m.keys.Export):
		return m, m.export()
	case key.Matches(msg, m.keys.Import):
		m.mode = ModeImport
		m.input.Placeholder = "Path to a tasks JSON file"
		m.input.SetValue(transfer.Filename(m.session.Now()))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil
	}

	// Task actions need a task under the cursor
	if len(tasks) == 0 {
		return m, nil
	}
	task := tasks[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Toggle):
		updated, err := m.session.Toggle(context.Background(), task.ID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if updated.Completed {
			m.setStatus("Completed: "+updated.Title, deadline.SeverityInfo)
		}
		m.clampCursor()
		return m, m.syncCountdown()

	case key.Matches(msg, m.keys.Delete):
		m.mode = ModeConfirmDelete
		m.targetID = task.ID

	case key.Matches(msg, m.keys.Edit):
		m.mode = ModeEdit
		m.targetID = task.ID
		m.input.Placeholder = "Title @tag !high due:tomorrow at:17:00 -- notes"
		m.input.SetValue(quickadd.Format(task))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Notes):
		m.mode = ModeNotes
		m.targetID = task.ID
		m.notes.SetValue(task.Description)
		return m, m.notes.Focus()

	case key.Matches(msg, m.keys.Details):
		m.mode = ModeDetails
		m.targetID = task.ID
		m.details = nil
		return m, m.loadDetails(task.ID)
	}

	m.ensureCursorVisible()
	return m, nil
}

// handleAddMode handles keypresses when adding a task
func (m Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		in, err := quickadd.Parse(text, m.session.Now())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		task, notices, err := m.session.Add(context.Background(), in)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.mode = ModeNormal
		m.input.Blur()
		m.setStatus("Added: "+task.Title, deadline.SeverityInfo)
		m.announce(notices)
		m.selectTask(task.ID)
		return m, m.syncCountdown()
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEditMode handles keypresses in edit mode
func (m Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		orig, err := m.session.Store().Get(m.targetID)
		if err != nil {
			m.mode = ModeNormal
			m.setError(err)
			return m, nil
		}
		in, err := quickadd.Parse(m.input.Value(), m.session.Now())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		quickadd.KeepFlattened(orig, &in, m.session.Now())
		task, err := m.session.Update(context.Background(), m.targetID, in.Patch())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.mode = ModeNormal
		m.input.Blur()
		m.setStatus("Updated: "+task.Title, deadline.SeverityInfo)
		m.selectTask(task.ID)
		return m, m.syncCountdown()
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSearchMode filters as the user types; esc restores the old search
func (m Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		m.session.SetSearch(m.prevSearch)
		m.clampCursor()
		return m, m.syncCountdown()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.session.Filters().Search {
		m.session.SetSearch(q)
		m.cursor, m.offset = 0, 0
	}
	return m, tea.Batch(cmd, m.syncCountdown())
}

// handleNotesMode edits the description; ctrl+s saves
func (m Model) handleNotesMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		task, err := m.session.UpdateNotes(context.Background(), m.targetID, m.notes.Value())
		m.mode = ModeNormal
		m.notes.Blur()
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Notes saved: "+task.Title, deadline.SeverityInfo)
		// new notes can drop the task out of a search
		m.clampCursor()
		return m, m.syncCountdown()
	case "esc":
		m.mode = ModeNormal
		m.notes.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m Model) handleImportMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return m, nil
		}
		m.mode = ModeNormal
		m.input.Blur()
		return m, readImport(path)
	case "esc":
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		task, err := m.session.Store().Get(m.targetID)
		if err == nil {
			err = m.session.Remove(context.Background(), m.targetID)
		}
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Deleted: "+task.Title, deadline.SeverityInfo)
		m.clampCursor()
		return m, m.syncCountdown()
	case "n", "N", "esc":
		m.mode = ModeNormal
		m.targetID = ""
	}
	return m, nil
}

func (m Model) loadDetails(id string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		task, err := session.Details(context.Background(), id)
		return detailsLoadedMsg{id: id, task: task, err: err}
	}
}

// export snapshots the collection now and writes the file in the background
func (m Model) export() tea.Cmd {
	var buf bytes.Buffer
	if err := m.session.Export(&buf); err != nil {
		return func() tea.Msg { return exportedMsg{err: err} }
	}
	path := filepath.Join(m.opts.ExportDir, transfer.Filename(m.session.Now()))
	return func() tea.Msg {
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return exportedMsg{err: fmt.Errorf("failed to write export: %w", err)}
		}
		return exportedMsg{path: path}
	}
}

func readImport(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importReadMsg{path: path, err: fmt.Errorf("failed to read import: %w", err)}
		}
		return importReadMsg{path: path, data: data}
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	next := theme.Toggle()
	save := m.opts.SaveTheme
	if save == nil {
		m.setStatus("Theme: "+next.Name, deadline.SeverityInfo)
		return nil
	}
	return func() tea.Msg {
		return themeSavedMsg{name: next.Name, err: save(next.Name)}
	}
}

// announce shows the most severe notice and hands all of them to Deliver
func (m *Model) announce(notices []deadline.Notice) {
	if len(notices) == 0 {
		return
	}
	top := notices[0]
	for _, n := range notices[1:] {
		if n.Severity > top.Severity {
			top = n
		}
	}
	text := top.Message
	if len(notices) > 1 {
		text = fmt.Sprintf("%s (+%d more)", text, len(notices)-1)
	}
	m.setStatus(text, top.Severity)
	if m.opts.Deliver != nil {
		m.opts.Deliver(notices)
	}
}

func (m *Model) setStatus(text string, level deadline.Severity) {
	m.statusMsg = text
	m.statusLevel = level
}

func (m *Model) setError(err error) {
	if err == nil {
		return
	}
	var text string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		text = "Timed out"
	default:
		text = err.Error()
	}
	m.setStatus(text, deadline.SeverityError)
}

// selectTask moves the cursor onto id if it is visible
func (m *Model) selectTask(id string) {
	for i, t := range m.session.View() {
		if t.ID == id {
			m.cursor = i
			m.ensureCursorVisible()
			return
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.session.View())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// visibleRows is how many task rows fit between header and footer
func (m Model) visibleRows() int {
	available := m.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts offset to keep the cursor in view
func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Cursor returns the index of the selected row
func (m Model) Cursor() int {
	return m.cursor
}

// Mode returns the current input mode
func (m Model) Mode() Mode {
	return m.mode
}

// Status returns the status line text
func (m Model) Status() string {
	return m.statusMsg
}
