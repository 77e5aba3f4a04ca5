package logging

import (
	"os"
	"strings"
	"testing"
)

func TestDisabledByDefault(t *testing.T) {
	t.Setenv(EnvDebug, "")
	logger, closer := New("test ")
	defer closer.Close()

	if logger.Writer() == nil {
		t.Fatal("Expected a usable logger")
	}
	logger.Printf("dropped")
}

func TestWritesDebugFile(t *testing.T) {
	t.Setenv(EnvDebug, "1")
	t.Setenv("TMPDIR", t.TempDir())

	logger, closer := New("test ")
	logger.Printf("hello %d", 42)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(Path())
	if err != nil {
		t.Fatalf("Failed to read debug log: %v", err)
	}
	if !strings.Contains(string(data), "test ") || !strings.Contains(string(data), "hello 42") {
		t.Errorf("Unexpected log contents: %q", data)
	}
}
