package logs

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// envDebug turns on debug output when set to "1".
const envDebug = "DEBUG"

// levelPriority defines the priority of each log level
// higher value= more severe
var levelPriority = map[Level]int{
	DEBUG: 1,
	INFO:  2,
	WARN:  3,
	ERROR: 4,
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelPriority[level]; !ok {
		return "", fmt.Errorf("unknown log level %q: want debug|info|warn|error", s)
	}
	return level, nil
}

// LevelFromEnv returns DEBUG when DEBUG=1 is set, INFO otherwise.
func LevelFromEnv() Level {
	if os.Getenv(envDebug) == "1" {
		return DEBUG
	}
	return INFO
}

type Entry struct {
	TimeStamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

type Logger struct {
	mu      sync.Mutex
	entries []Entry
	maxSize int
	level   Level
	out     *log.Logger
}

// level: minimum log level to record(e.g., INFO, WARN, ERROR,DEBUG)
//
// maxSize: maximum number of log entries kept in memory
func NewLogger(maxSize int, level Level) *Logger {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Logger{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
		level:   level,
	}
}

// SetOutput mirrors every recorded entry to w. Passing nil stops mirroring.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		l.out = nil
		return
	}
	l.out = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

// Enabled reports whether messages at level would be recorded.
func (l *Logger) Enabled(level Level) bool {
	return levelPriority[level] >= levelPriority[l.level]
}

// log is the internal logging function
// it applies level filtering and ring buffer behavior
func (l *Logger) log(level Level, msg string) {
	//filter logs below the current level
	if !l.Enabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.maxSize {
		//remove oldest entry(ring behavior)
		l.entries = l.entries[1:]
	}

	l.entries = append(l.entries, Entry{
		TimeStamp: time.Now(),
		Level:     level,
		Message:   msg,
	})

	if l.out != nil {
		l.out.Printf("[%s] %s", level, msg)
	}
}

func (l *Logger) logf(level Level, format string, args ...any) {
	// skip formatting work for filtered levels
	if !l.Enabled(level) {
		return
	}
	l.log(level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(msg string) {
	l.log(DEBUG, msg)
}

func (l *Logger) Info(msg string) {
	l.log(INFO, msg)
}

func (l *Logger) Warn(msg string) {
	l.log(WARN, msg)
}

func (l *Logger) Error(msg string) {
	l.log(ERROR, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(DEBUG, format, args...) }

func (l *Logger) Infof(format string, args ...any) { l.logf(INFO, format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.logf(WARN, format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.logf(ERROR, format, args...) }

func (l *Logger) GetLast(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		out := make([]Entry, len(l.entries))
		copy(out, l.entries)
		return out
	}

	start := len(l.entries) - n
	out := make([]Entry, n)
	copy(out, l.entries[start:])
	return out
}
