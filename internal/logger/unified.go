package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogType tags an entry so the output hook can route it to the user or
// operational stream.
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

// UnifiedLogger owns the process-wide logrus instance that User and Op
// write through. Setup reconfigures it in place.
type UnifiedLogger struct {
	mu     sync.RWMutex
	logger *logrus.Logger
}

var (
	unifiedLog *UnifiedLogger
	once       sync.Once
)

// GetLogger returns the shared instance. Before Setup runs it writes bare
// messages to stdout at info level.
func GetLogger() *UnifiedLogger {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&CLIFormatter{DisableTimestamp: true, DisableLevel: true})
		unifiedLog = &UnifiedLogger{logger: l}
	})
	return unifiedLog
}

// GetInternalLogger returns the underlying logrus logger.
func (l *UnifiedLogger) GetInternalLogger() *logrus.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logger
}

// Starting announces a long-running step, such as a batch apply, on the
// user stream.
func (l *UnifiedLogger) Starting(msg string) {
	l.GetInternalLogger().WithField("log_type", string(UserLog)).Info("[STARTING] " + msg)
}
