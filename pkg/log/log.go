// Package log provides the zerolog-based package logger used across dynstr.
// It is silent until configured: SetStd routes events to the console, Init
// stores them as JSON rows in an SQLite database.
package log

import (
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var (
	writeSinceStart        atomic.Int64
	pkgLogger              = zerolog.Nop()
	dbWriterInstance       *sqliteWriter
	mu                     sync.RWMutex                 // protects dbWriterInstance and pkgLogger during Init/Close
	zerologTimeFieldFormat = zerolog.TimeFormatUnixNano // integer, so range queries compare numerically

	ErrNotInitialized = errors.New("log: logger not initialized, call log.Init() first")
)

// SetStd routes the package logger to a human readable console writer on stdout.
func SetStd() {
	mu.Lock()
	defer mu.Unlock()
	pkgLogger = zerolog.New(zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})).With().Timestamp().Logger()
}

// SetLevel sets the global minimum level. Debug events are dropped unless
// debug is true.
func SetLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init opens (or creates) the SQLite database at dbPath and routes the
// package logger to it.
func Init(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("logger need an explicit dbPath")
	}

	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance != nil {
		return fmt.Errorf("logger already initialized")
	}

	writer, err := newSQLiteWriter(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite writer: %w", err)
	}

	dbWriterInstance = writer
	writeSinceStart.Store(0)
	zerolog.TimeFieldFormat = zerologTimeFieldFormat
	pkgLogger = zerolog.New(dbWriterInstance).With().
		Timestamp().
		Logger()
	return nil
}

// Close flushes a final event and closes the SQLite sink. It is safe to call
// when Init was never called.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if dbWriterInstance == nil {
		return nil
	}

	dbWriter := dbWriterInstance
	dbWriterInstance = nil
	pkgLogger = zerolog.Nop()

	writerLogger := zerolog.New(dbWriter).With().Timestamp().Logger()
	writerLogger.Log().Msg("closing SQLite logger")

	if err := dbWriter.close(); err != nil {
		stdlog.Printf("Error closing SQLite logger: %v\n", err)
		return fmt.Errorf("error closing SQLite logger: %w", err)
	}
	return nil
}

func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := pkgLogger
	return &l
}

func Debug() *zerolog.Event { return logger().Debug() }
func Info() *zerolog.Event  { return logger().Info() }
func Warn() *zerolog.Event  { return logger().Warn() }
func Error() *zerolog.Event { return logger().Error() }
