package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	logger  *log.Logger
	logFile *os.File
)

func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	logger = log.NewWithOptions(io.MultiWriter(writers...), log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	return nil
}

func SetDebug(on bool) {
	mu.Lock()
	defer mu.Unlock()
	if on {
		active().SetLevel(log.DebugLevel)
	} else {
		active().SetLevel(log.InfoLevel)
	}
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	err := logFile.Close()
	logFile = nil
	return err
}

// active returns the configured logger, building a stderr default when Init
// was never called.
func active() *log.Logger {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		})
	}
	return logger
}

func LogEvent(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	active().Info(fmt.Sprintf(format, args...))
}

func LogDebug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	active().Debug(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	active().Error(fmt.Sprintf(format, args...))
}

// LogRequest records one side of a provider exchange. Payloads carry full
// prompts and responses, so they only surface at debug level.
func LogRequest(direction, provider, model, kind string, payload any) {
	msg := buildRequestMessage(direction, provider, model, kind, payload)
	mu.Lock()
	defer mu.Unlock()
	active().Debug(msg)
}

func buildRequestMessage(direction, provider, model, kind string, payload any) string {
	dir := strings.TrimSpace(direction)
	if dir != "" {
		dir = strings.ToUpper(dir)
	}
	providerValue := strings.TrimSpace(provider)
	if providerValue == "" {
		providerValue = "unknown"
	}
	modelValue := strings.TrimSpace(model)
	if modelValue == "" {
		modelValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("provider=%s", providerValue))
	parts = append(parts, fmt.Sprintf("model=%s", modelValue))
	if kind = strings.TrimSpace(kind); kind != "" {
		parts = append(parts, fmt.Sprintf("kind=%s", kind))
	}
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
