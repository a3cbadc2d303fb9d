// Package logging provides the shared leveled logger. Log lines go to
// stderr until InitFile points them at ~/.lzd/lzd.log; the interactive view
// owns the terminal and calls InitFile, the non-interactive subcommands
// keep stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log levels, lowest to highest.
const (
	DEBUG = iota
	INFO
	WARN
	ERROR
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stderr
	level           = INFO

	debugTag = color.New(color.FgCyan).Sprint("DEBUG")
	infoTag  = color.New(color.FgGreen).Sprint("INFO")
	warnTag  = color.New(color.FgYellow).Sprint("WARN")
	errorTag = color.New(color.FgRed, color.Bold).Sprint("ERROR")
)

// InitFile points the logger at ~/.lzd/lzd.log, creating the directory if
// needed. Falls back to stderr when the home directory is unavailable.
func InitFile() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("logging: home dir: %w", err)
	}
	dir := filepath.Join(home, ".lzd")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logging: mkdir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "lzd.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("logging: open log: %w", err)
	}
	SetOutput(f)
	return nil
}

// SetOutput redirects log lines to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetLevel drops lines below l.
func SetLevel(l int) {
	mu.Lock()
	level = l
	mu.Unlock()
}

func emit(l int, tag, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	fmt.Fprintf(out, "%s %s %s\n",
		time.Now().Format("2006-01-02 15:04:05"), tag, fmt.Sprintf(format, a...))
}

func Debugf(format string, a ...any) { emit(DEBUG, debugTag, format, a...) }
func Infof(format string, a ...any)  { emit(INFO, infoTag, format, a...) }
func Warnf(format string, a ...any)  { emit(WARN, warnTag, format, a...) }
func Errorf(format string, a ...any) { emit(ERROR, errorTag, format, a...) }
