package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// LogEntry is the structured log entry streamed to a run monitor.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	defaultLogger  *slog.Logger
	monitorChannel chan LogEntry
	isMonitorMode  bool
)

const monitorChannelBufferSize = 2048

// initCommon initializes the logger for either monitor or CLI mode.
// This should be called once at application startup.
func initCommon(mode string, level LogLevel, output io.Writer, channelBufferSize int) <-chan LogEntry {
	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}

	var handler slog.Handler
	if mode == "monitor" {
		isMonitorMode = true
		if channelBufferSize <= 0 {
			channelBufferSize = monitorChannelBufferSize
		}
		monitorChannel = make(chan LogEntry, channelBufferSize)
		// Monitor mode delivers entries via the channel; direct slog output
		// from the default logger is discarded.
		handler = slog.NewTextHandler(io.Discard, opts)
	} else { // cli mode
		isMonitorMode = false
		handler = slog.NewTextHandler(output, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	if isMonitorMode {
		return monitorChannel
	}
	return nil
}

// InitForMonitor initializes the logging system for monitor mode, where log
// entries are streamed to the returned channel for live run observation.
func InitForMonitor(filterLevel LogLevel) <-chan LogEntry {
	return initCommon("monitor", filterLevel, io.Discard, monitorChannelBufferSize)
}

// InitForCLI initializes the logging system for CLI mode.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	initCommon("cli", filterLevel, output, 0)
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	// For CLI mode, check if the level is enabled by the configured handler
	// before formatting. Monitor mode always sends to the channel; the
	// monitor does its own filtering.
	if !isMonitorMode {
		if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
			return
		}
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if isMonitorMode {
		if monitorChannel != nil {
			entry := LogEntry{
				Timestamp: now,
				Level:     level,
				Subsystem: subsystem,
				Message:   msg,
				Err:       err,
			}
			select {
			case monitorChannel <- entry:
				// Sent successfully
			default:
				// Channel full or closed, fall back to stderr so the entry is not lost silently
				fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] monitor log channel full/closed. Dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			}
		} else {
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] monitor mode active but channel is nil. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
			}
		}
		return
	}

	if defaultLogger == nil {
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] Logger not initialized. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		return
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// CloseMonitorChannel closes the monitor log channel. Should be called on
// application shutdown after the monitor stops reading.
func CloseMonitorChannel() {
	if monitorChannel != nil {
		close(monitorChannel)
		monitorChannel = nil
	}
}
