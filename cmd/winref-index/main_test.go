package main

import (
	"strings"
	"testing"
)

func TestExecute_Version(t *testing.T) {
	err := Execute("1.0.0", "abc123", "winref-index", []string{"--version"})
	if err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	err := Execute("1.0.0", "abc123", "winref-index", []string{"--help"})
	if err != nil {
		t.Errorf("Expected no error for --help, got: %v", err)
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	err := Execute("1.0.0", "abc123", "winref-index", []string{"--invalid-flag"})
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_MissingSource(t *testing.T) {
	t.Setenv("WINREF_SOURCE", "")
	err := Execute("1.0.0", "abc123", "winref-index", []string{"--index-location", t.TempDir()})
	if err == nil {
		t.Fatal("Expected error for missing source")
	}
	if !strings.Contains(err.Error(), "source is required") {
		t.Errorf("Expected error about source, got: %v", err)
	}
}

func TestExecute_InvalidMode(t *testing.T) {
	err := Execute("1.0.0", "abc123", "winref-index", []string{"-s", t.TempDir(), "-i", t.TempDir(), "--mode", "random"})
	if err == nil {
		t.Fatal("Expected error for invalid mode")
	}
	if !strings.Contains(err.Error(), "mode") {
		t.Errorf("Expected error about mode, got: %v", err)
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	// --help should succeed
	runMain([]string{"winref-index", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"winref-index", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}
