package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitWithConfig_TextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "routine.log")

	if err := InitWithConfig("debug", "text", "file", path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if GetLogger().GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", GetLogger().GetLevel())
	}

	Info("allocation %s committed", "abc")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "allocation abc committed") {
		t.Errorf("Expected log line in file, got %q", string(content))
	}
}

func TestInitWithConfig_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		level  string
		format string
		output string
		path   string
	}{
		{"bad level", "loud", "json", "stdout", ""},
		{"bad format", "info", "xml", "stdout", ""},
		{"bad output", "info", "json", "printer", ""},
		{"file without path", "info", "json", "file", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := InitWithConfig(tc.level, tc.format, tc.output, tc.path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
