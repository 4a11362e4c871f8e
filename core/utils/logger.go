package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is a thin leveled wrapper over the standard log package. Handlers and
// services take it by pointer and tolerate nil, so tests can pass nothing.
type Logger struct {
	mu  sync.Mutex
	out *log.Logger
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags|log.LUTC)}
}

func (l *Logger) Printf(format string, args ...any) {
	l.write("INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.write("WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.write("ERROR", format, args...)
}

func (l *Logger) write(level, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("%s %s", level, fmt.Sprintf(format, args...))
}
