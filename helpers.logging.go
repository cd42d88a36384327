package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const megabyte = 1 << 20

// RSyncWrite is a size rotated log file writer safe for concurrent use.
// It satisfies zapcore.WriteSyncer. A new file is opened on the first
// write and each time the next write would exceed the max size.
type RSyncWrite struct {
	mu       sync.Mutex
	clock    Clocker
	file     *os.File
	folder   string
	env      string
	maxBytes int64
	size     int64
	rotated  int
}

func NewRSyncWriter(config *Config, clock Clocker) *RSyncWrite {
	env := "dev"
	if config.IsProduction {
		env = "prod"
	}
	return &RSyncWrite{
		clock:    clock,
		folder:   config.LogFolder,
		env:      env,
		maxBytes: int64(config.LogMaxSize) * megabyte,
	}
}

// Close closes the current log file.
func (rsw *RSyncWrite) Close() error {
	rsw.mu.Lock()
	defer rsw.mu.Unlock()
	if rsw.file == nil {
		return nil
	}
	err := rsw.file.Close()
	rsw.file = nil
	return err
}

// Sync flushes the current log file if any.
func (rsw *RSyncWrite) Sync() error {
	rsw.mu.Lock()
	defer rsw.mu.Unlock()
	if rsw.file == nil {
		return nil
	}
	return rsw.file.Sync()
}

// Write appends p to the current file, rotating it first when needed.
func (rsw *RSyncWrite) Write(p []byte) (int, error) {
	rsw.mu.Lock()
	defer rsw.mu.Unlock()
	if int64(len(p)) > rsw.maxBytes {
		return 0, fmt.Errorf("logging: entry of %d bytes exceeds max file size of %d bytes", len(p), rsw.maxBytes)
	}
	if rsw.file == nil || rsw.size+int64(len(p)) > rsw.maxBytes {
		if err := rsw.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rsw.file.Write(p)
	rsw.size += int64(n)
	return n, err
}

// rotate closes the current file and opens a fresh one. Caller holds the lock.
func (rsw *RSyncWrite) rotate() error {
	if rsw.file != nil {
		if err := rsw.file.Close(); err != nil {
			return err
		}
		rsw.file = nil
	}
	if err := os.MkdirAll(rsw.folder, 0o700); err != nil {
		return err
	}
	path := CreateLogFilePath(rsw.folder, rsw.env, rsw.clock.Now(), rsw.rotated)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	rsw.file = file
	rsw.size = 0
	rsw.rotated++
	return nil
}

// stdoutSyncer ignores Sync calls. Syncing a terminal stdout fails on some platforms.
type stdoutSyncer struct {
	*os.File
}

func (stdoutSyncer) Sync() error {
	return nil
}

func encoderConfig(base zapcore.EncoderConfig) zapcore.EncoderConfig {
	base.TimeKey = "ts"
	base.EncodeTime = zapcore.ISO8601TimeEncoder
	base.LevelKey = "lvl"
	base.NameKey = "name"
	base.MessageKey = "msg"
	base.CallerKey = "caller"
	base.StacktraceKey = "skt"
	return base
}

// SetupLogging builds the application logger. Entries always go as json to
// the rotated file. Outside production they are printed to stdout too.
// Timestamps come from clock so they are UTC in production.
func SetupLogging(config *Config, w *RSyncWrite, clock TickerClocker) (*zap.Logger, func() error) {
	var core zapcore.Core
	if config.IsProduction {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig(zap.NewProductionEncoderConfig())), w, config.LogLevel)
	} else {
		encCfg := encoderConfig(zap.NewDevelopmentEncoderConfig())
		core = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, config.LogLevel),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(stdoutSyncer{os.Stdout}), config.LogLevel),
		)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock)).With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}
	return logger, flusher
}

// CreateLogFilePath returns the path of a log file opened at t. seq tells
// apart the files rotated within the same second.
func CreateLogFilePath(folder, env string, t time.Time, seq int) string {
	name := fmt.Sprintf("catalog.%s.%s.%d.log", t.Format("20060102.150405"), env, seq)
	return filepath.Join(folder, name)
}
