package ui

import (
	"github.com/dori/duelist/internal/model"
)

// Mode is the current input mode of the list
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
	ModeSearch
	ModeNotes
	ModeConfirmDelete
	ModeDetails
	ModeImport
	ModeHelp
)

// String returns the display name for a mode
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "List"
	case ModeAdd:
		return "Add"
	case ModeEdit:
		return "Edit"
	case ModeSearch:
		return "Search"
	case ModeNotes:
		return "Notes"
	case ModeConfirmDelete:
		return "Delete"
	case ModeDetails:
		return "Details"
	case ModeImport:
		return "Import"
	case ModeHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// IsInput reports whether keys go to a text field
func (m Mode) IsInput() bool {
	switch m {
	case ModeAdd, ModeEdit, ModeSearch, ModeNotes, ModeImport:
		return true
	}
	return false
}

// Messages for inter-component communication

// countdownTickMsg carries the countdown generation that scheduled it.
// Ticks from a cancelled generation are dropped.
type countdownTickMsg struct {
	gen uint64
}

// deadlineTickMsg drives the deadline notifier loop
type deadlineTickMsg struct{}

// warningMsg is a non-fatal error reported by the session
type warningMsg struct {
	err error
}

// detailsLoadedMsg contains the freshest copy of a task
type detailsLoadedMsg struct {
	id   string
	task model.Task
	err  error
}

// exportedMsg indicates the collection was written to a file
type exportedMsg struct {
	path string
	err  error
}

// importReadMsg carries the contents of an import file. The import itself
// runs in Update like every other mutation.
type importReadMsg struct {
	path string
	data []byte
	err  error
}

// themeSavedMsg indicates the theme preference was stored
type themeSavedMsg struct {
	name string
	err  error
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}
