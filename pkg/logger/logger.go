package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

// Logger writes snake_case events with key/value fields.
type Logger struct {
	entry *logrus.Entry
}

var (
	global *Logger
	mu     sync.RWMutex
)

func parseLevel(level LogLevel) logrus.Level {
	switch LogLevel(strings.ToUpper(string(level))) {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Init configures the process-wide logger. A nil writer discards output.
func Init(level LogLevel, jsonFormat bool, w io.Writer) {
	base := logrus.New()
	if w == nil {
		w = io.Discard
	}
	base.SetOutput(w)
	base.SetLevel(parseLevel(level))
	if jsonFormat {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	mu.Lock()
	global = &Logger{entry: logrus.NewEntry(base)}
	mu.Unlock()
}

func GetLogger() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		Init(INFO, false, os.Stdout)
		mu.RLock()
		l = global
		mu.RUnlock()
	}
	return l
}

func (l *Logger) WithContext(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) Debug(event string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(event)
}

func (l *Logger) Info(event string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(event)
}

func (l *Logger) Warn(event string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Warn(event)
}

func (l *Logger) Error(event string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(event)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["extra"] = kv[len(kv)-1]
	}
	return f
}
