package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	config := &Config{
		LogFilePath: logPath,
		MaxFileSize: 1024,
		MaxBackups:  3,
		Level:       LevelDebug,
	}

	l, err := NewFileLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestLogLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	l, err := NewFileLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 1024 * 1024,
		MaxBackups:  3,
		Level:       LevelDebug,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("test error"), Float64("rate", 3.14))

	l.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	for _, want := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]", "key=value", "count=42", "test error"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log content missing %q", want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	l, err := NewFileLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 1024 * 1024,
		MaxBackups:  3,
		Level:       LevelWarn,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("warning here")
	l.Close()

	content, _ := os.ReadFile(logPath)
	if strings.Contains(string(content), "should not appear") {
		t.Error("Messages below the configured level were written")
	}
	if !strings.Contains(string(content), "warning here") {
		t.Error("Warning message was filtered out")
	}
}

func TestRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	l, err := NewFileLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 200,
		MaxBackups:  2,
		Level:       LevelDebug,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	for i := 0; i < 20; i++ {
		l.Info("a reasonably long log line to force rotation", Int("iteration", i))
	}
	l.Close()

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("Expected rotated backup file to exist")
	}
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")

	if err := Init(&Config{LogFilePath: logPath, MaxFileSize: 1024 * 1024, MaxBackups: 1, Level: LevelInfo}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Info("global message")
	Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "global message") {
		t.Error("Global logger did not write the message")
	}

	// After Close the global logger must fall back to a no-op.
	Info("after close")
}
