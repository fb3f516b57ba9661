package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"datadestroyer/internal/config"
)

// Logger is the audit logger shared by every component.
// Calls take a level name, a message and alternating key/value pairs.
type Logger struct {
	z     *zap.Logger
	sugar *zap.SugaredLogger
	file  *os.File
}

// New builds a logger from the logging section of cfg. Console output is
// limited to errors unless verbose is set. A log file that cannot be opened
// degrades to console-only logging.
func New(cfg *config.Config, verbose bool) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := zapcore.ErrorLevel
	if verbose {
		consoleLevel = level
	}
	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), consoleLevel),
	}

	l := &Logger{}
	if cfg.Logging.File != "" {
		f, err := openLogFile(cfg.Logging.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] cannot open log file %s: %v, logging to console only\n", cfg.Logging.File, err)
		} else {
			l.file = f
			var fileEnc zapcore.Encoder
			if cfg.Logging.Structured {
				fileEnc = zapcore.NewJSONEncoder(encCfg)
			} else {
				fileEnc = zapcore.NewConsoleEncoder(encCfg)
			}
			cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), level))
		}
	}

	l.z = zap.New(zapcore.NewTee(cores...))
	l.sugar = l.z.Sugar()
	return l, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// FromZap wraps an existing zap logger, e.g. zaptest.NewLogger(t).
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z, sugar: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

// Named returns a child logger for a component.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return NewNop().Named(name)
	}
	z := l.z.Named(name)
	return &Logger{z: z, sugar: z.Sugar()}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

func (l *Logger) Log(level, message string, fields ...interface{}) {
	if l == nil {
		return
	}
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.sugar.Debugw(message, fields...)
	case "WARN":
		l.sugar.Warnw(message, fields...)
	case "ERROR", "FATAL":
		l.sugar.Errorw(message, fields...)
	default:
		l.sugar.Infow(message, fields...)
	}
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
