package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ANSI colour codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	grey   = "\033[90m"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	verbose bool
)

// SetOutput redirects all log lines. Tests pass io.Discard.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetVerbose enables Debug lines.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

func ts() string {
	return time.Now().Format("15:04:05")
}

func write(colour, tag, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s[%s] %-7s %s%s\n", colour, ts(), tag, fmt.Sprintf(format, a...), reset)
}

func Debug(format string, a ...interface{}) {
	mu.Lock()
	v := verbose
	mu.Unlock()
	if !v {
		return
	}
	write(grey, "[DEBUG]", format, a...)
}

func Info(format string, a ...interface{}) {
	write(blue, "[INFO]", format, a...)
}

func Success(format string, a ...interface{}) {
	write(green, "[OK]", format, a...)
}

func Warn(format string, a ...interface{}) {
	write(yellow, "[WARN]", format, a...)
}

func Error(format string, a ...interface{}) {
	write(red, "[ERROR]", format, a...)
}

func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "\n%s[%s] ══════════ %s ══════════%s\n\n", cyan, ts(), title, reset)
}
