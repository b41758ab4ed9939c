package app

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterFlags(t *testing.T) {
	tests := []struct {
		name     string
		register func(*pflag.FlagSet)
		want     []string
		absent   []string
	}{
		{
			name:     "index",
			register: RegisterIndexFlags,
			want:     []string{"source", "logging", "index-location", "overall-memory", "mode", "workers", "commit"},
			absent:   []string{"host", "port", "corpus-url", "mcp"},
		},
		{
			name:     "service",
			register: RegisterServiceFlags,
			want:     []string{"source", "logging", "index-location", "overall-memory", "mode", "workers", "commit", "host", "port", "corpus-url", "mcp"},
		},
		{
			name:     "export",
			register: RegisterExportFlags,
			want:     []string{"source", "logging"},
			absent:   []string{"index-location", "host"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			tt.register(flags)

			for _, name := range tt.want {
				if flags.Lookup(name) == nil {
					t.Errorf("Expected flag %q to be registered", name)
				}
			}
			for _, name := range tt.absent {
				if flags.Lookup(name) != nil {
					t.Errorf("Expected flag %q not to be registered", name)
				}
			}
		})
	}
}

func TestRegisterServiceFlags_Shorthand(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterServiceFlags(flags)

	shorthandFlags := map[string]string{
		"source":         "s",
		"logging":        "l",
		"index-location": "i",
		"overall-memory": "m",
		"workers":        "w",
		"host":           "H",
		"port":           "p",
	}

	for name, shorthand := range shorthandFlags {
		flag := flags.Lookup(name)
		if flag == nil {
			t.Errorf("Flag %q not found", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("Flag %q: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestRegisterIndexFlags_Parse(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterIndexFlags(flags)

	args := []string{"-s", "/corpus", "-i", "/index", "-m", "5000", "--mode", "sequential", "--commit", "unit"}
	if err := flags.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	if v, _ := flags.GetString("source"); v != "/corpus" {
		t.Errorf("Expected source '/corpus', got %q", v)
	}
	if v, _ := flags.GetInt("overall-memory"); v != 5000 {
		t.Errorf("Expected overall-memory 5000, got %d", v)
	}
	if v, _ := flags.GetString("commit"); v != "unit" {
		t.Errorf("Expected commit 'unit', got %q", v)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if defaultWorkers() < 1 {
		t.Error("Expected at least one worker")
	}
}
