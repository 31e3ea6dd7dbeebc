package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"scriptorium-2026-01-01T00-00-00.log",
		"scriptorium-2026-01-02T00-00-00.log",
		"scriptorium-2026-01-03T00-00-00.log",
		"unrelated.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := pruneLogs(dir, 2); err != nil {
		t.Fatalf("pruneLogs() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, names[0])); !os.IsNotExist(err) {
		t.Error("oldest log should be removed")
	}
	for _, name := range names[1:] {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be kept: %v", name, err)
		}
	}
}

func TestLogWriter_NoDirIsStdout(t *testing.T) {
	w, closeFn, err := LogWriter("", 5)
	if err != nil {
		t.Fatalf("LogWriter() error = %v", err)
	}
	if w != os.Stdout {
		t.Error("LogWriter without dir should return stdout")
	}
	if err := closeFn(); err != nil {
		t.Errorf("close error = %v", err)
	}
}
