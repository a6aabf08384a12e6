// Copyright © 2024 The Procq Project.

package core

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"
)

const (
	// TimeFormat used for log timestamps.
	TimeFormat = "2006-01-02T15:04:05.000Z07:00"
)

const (
	levelDebug = iota - 1
	levelInfo  // default
	levelWarn
	levelError
)

const (
	exitSuccess = iota
	exitWarn
	exitError
)

var (
	logLevel = func() int {
		switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
		case "DEBUG":
			return levelDebug
		case "WARN":
			return levelWarn
		case "ERROR":
			return levelError
		}
		return levelInfo
	}()

	// exitCode: 0 SUCCESS, 1 WARN, 2 ERROR
	exitCode = exitSuccess
)

type (
	// Err records a message with the location of the initial error.
	Err struct {
		s   string
		err error
	}
)

func init() {
	log.SetFlags(0)
}

// Error method to comply with error interface.
func (err *Err) Error() string {
	return err.s
}

// Unwrap method to comply with error interface.
func (err *Err) Unwrap() error {
	return err.err
}

// Error formats an error with its caller's location and an errno where one
// is present, preserving the initial Err for percolation.
func Error(name string, err error) *Err {
	return logMessage(2, name, err)
}

// Unsupported reports that the build platform does not support a function.
func Unsupported() error {
	return fmt.Errorf("%s unsupported", runtime.GOOS)
}

// ExitCode reports the exit status accumulated by warning and error logging.
func ExitCode() int {
	return exitCode
}

// logWrite writes a log message to the log destination.
func logWrite(level string, err error) {
	if msg := logMessage(3, "", err); msg != nil {
		log.Printf("%s %-5s %s", time.Now().Format(TimeFormat), level, msg)
	}
}

// logMessage formats a log message with the location of the initial error.
func logMessage(depth int, name string, err error) *Err {
	if err == nil {
		return nil
	}
	e := &Err{}
	if errors.As(err, &e) {
		return e // percolate original Err
	}
	_, file, line, _ := runtime.Caller(depth)
	msg := fmt.Sprintf("[%s:%d] ", filepath.Base(file), line)
	if name != "" {
		msg += name + ": "
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		msg += fmt.Sprintf("errno %d: ", errno)
	}
	return &Err{
		s:   msg + err.Error(),
		err: err,
	}
}

// LogDebug log debug message.
func LogDebug(err error) {
	if logLevel <= levelDebug {
		logWrite("DEBUG", err)
	}
}

// LogInfo log info message (default logging level).
func LogInfo(err error) {
	if logLevel <= levelInfo {
		logWrite("INFO", err)
	}
}

// LogWarn log warning message, setting exit code to WARN.
func LogWarn(err error) {
	if logLevel <= levelWarn {
		logWrite("WARN", err)
	}
	if exitCode < exitWarn {
		exitCode = exitWarn
	}
}

// LogError log error message, setting exit code to ERROR.
func LogError(err error) {
	if logLevel <= levelError {
		logWrite("ERROR", err)
	}
	if exitCode < exitError {
		exitCode = exitError
	}
}
