package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/todo-app/client"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantAPI string
		wantLog string
	}{
		{
			name:    "defaults",
			wantAPI: client.DefaultBaseURL,
		},
		{
			name:    "env",
			env:     map[string]string{"TODO_API_URL": "http://api:8080/api/todos", "TODO_CLIENT_LOG": "/tmp/c.log"},
			wantAPI: "http://api:8080/api/todos",
			wantLog: "/tmp/c.log",
		},
		{
			name:    "flags win over env",
			env:     map[string]string{"TODO_API_URL": "http://api:8080/api/todos"},
			args:    []string{"-api", "http://other/api/todos", "-log", "x.log"},
			wantAPI: "http://other/api/todos",
			wantLog: "x.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TODO_API_URL", "")
			t.Setenv("TODO_CLIENT_LOG", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			opts, err := parseFlags(tt.args, io.Discard)
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if opts.apiURL != tt.wantAPI {
				t.Errorf("apiURL = %q, want %q", opts.apiURL, tt.wantAPI)
			}
			if opts.logPath != tt.wantLog {
				t.Errorf("logPath = %q, want %q", opts.logPath, tt.wantLog)
			}
		})
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := parseFlags([]string{"-nope"}, io.Discard); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	logger, closeLog, err := newLogger(path)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Error("request failed", "err", "boom")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "request failed") || !strings.Contains(string(data), "todo-client") {
		t.Errorf("unexpected log contents: %q", data)
	}
}

func TestNewLogger_Discard(t *testing.T) {
	logger, closeLog, err := newLogger("")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer closeLog()
	logger.Info("dropped")
}
