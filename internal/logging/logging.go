// Package logging provides the opt-in debug log (enable by setting
// DUELIST_DEBUG=1). Nothing is ever written to stdout or stderr, which
// belong to the TUI.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

const EnvDebug = "DUELIST_DEBUG"

// Path is the debug log location
func Path() string {
	return filepath.Join(os.TempDir(), "duelist-debug.log")
}

// New returns a logger writing to the debug file when DUELIST_DEBUG=1 and a
// discarding logger otherwise. The closer must be called on exit.
func New(prefix string) (*log.Logger, io.Closer) {
	if os.Getenv(EnvDebug) != "1" {
		return Discard(), nopCloser{}
	}
	f, err := os.OpenFile(Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return Discard(), nopCloser{}
	}
	return log.New(f, prefix, log.LstdFlags|log.Lmicroseconds), f
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
