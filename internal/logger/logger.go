package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	User *UserLogger // Clean messages for users (stdout)
	Op   *OpLogger   // Detailed operational logs (stderr)

	log *UnifiedLogger
)

func init() {
	log = GetLogger()
	User = &UserLogger{logger: log.GetInternalLogger()}
	Op = &OpLogger{logger: log.GetInternalLogger()}
}

type UserLogger struct {
	logger *logrus.Logger
}

type OpLogger struct {
	logger *logrus.Logger
}

func (u *UserLogger) entry(emoji string) *logrus.Entry {
	fields := logrus.Fields{"log_type": string(UserLog)}
	if emoji != "" {
		fields["emoji"] = emoji
	}
	return u.logger.WithFields(fields)
}

func (u *UserLogger) Info(msg string) {
	u.entry("").Info(msg)
}

func (u *UserLogger) Infof(format string, args ...interface{}) {
	u.entry("").Infof(format, args...)
}

func (u *UserLogger) Error(msg string) {
	u.entry("❌").Error(msg)
}

func (u *UserLogger) Errorf(format string, args ...interface{}) {
	u.entry("❌").Errorf(format, args...)
}

func (u *UserLogger) Warnf(format string, args ...interface{}) {
	u.entry("⚠️").Warnf(format, args...)
}

func (u *UserLogger) Success(msg string) {
	u.entry("✅").Info(msg)
}

// Stockf reports a stock movement or purchase request outcome.
func (u *UserLogger) Stockf(format string, args ...interface{}) {
	u.entry("📦").Infof(format, args...)
}

func (o *OpLogger) Info(msg string) {
	o.Entry().Info(msg)
}

func (o *OpLogger) Infof(format string, args ...interface{}) {
	o.Entry().Infof(format, args...)
}

func (o *OpLogger) Error(msg string) {
	o.Entry().Error(msg)
}

func (o *OpLogger) Errorf(format string, args ...interface{}) {
	o.Entry().Errorf(format, args...)
}

func (o *OpLogger) Warnf(format string, args ...interface{}) {
	o.Entry().Warnf(format, args...)
}

func (o *OpLogger) Debug(msg string) {
	o.Entry().Debug(msg)
}

func (o *OpLogger) Debugf(format string, args ...interface{}) {
	o.Entry().Debugf(format, args...)
}

// Entry returns an entry tagged as an operational log. It satisfies
// logrus.FieldLogger and is what components take as their logger.
func (o *OpLogger) Entry() *logrus.Entry {
	return o.logger.WithField("log_type", string(OpLog))
}

func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return o.Entry().WithFields(fields)
}

// CLIFormatter provides clean output for CLI applications
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.DisableLevel && f.DisableTimestamp {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteString(" ")
	}

	if !f.DisableLevel {
		levelColor := ""
		resetColor := ""
		if !f.DisableColors {
			switch entry.Level {
			case logrus.ErrorLevel:
				levelColor = "\033[31m" // Red
			case logrus.WarnLevel:
				levelColor = "\033[33m" // Yellow
			case logrus.InfoLevel:
				levelColor = "\033[36m" // Cyan
			case logrus.DebugLevel:
				levelColor = "\033[37m" // White
			}
			resetColor = "\033[0m"
		}

		b.WriteString(levelColor)
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(resetColor)
		b.WriteString(": ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "log_type" || k == "emoji" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options controls Setup. Zero writers default to stdout/stderr.
type Options struct {
	Verbose    bool
	JSON       bool
	Quiet      bool
	UserWriter io.Writer
	OpWriter   io.Writer
}

func Setup(opts Options) {
	// Environment variables override CLI flags
	switch os.Getenv("LOG_MODE") {
	case "quiet":
		opts.Quiet, opts.Verbose = true, false
	case "verbose", "debug":
		opts.Verbose, opts.Quiet = true, false
	}
	switch os.Getenv("LOG_FORMAT") {
	case "json":
		opts.JSON = true
	case "text":
		opts.JSON = false
	}

	internalLogger := GetLogger().GetInternalLogger()

	level := logrus.InfoLevel
	if opts.Quiet {
		level = logrus.ErrorLevel
	} else if opts.Verbose {
		level = logrus.DebugLevel
	}

	internalLogger.Hooks = make(logrus.LevelHooks)
	internalLogger.SetOutput(io.Discard) // Output handled by hooks
	internalLogger.SetLevel(level)

	hook := NewOutputRouterHook()
	if opts.UserWriter != nil {
		hook.UserWriter = opts.UserWriter
	}
	if opts.OpWriter != nil {
		hook.OpWriter = opts.OpWriter
	}

	if opts.JSON {
		internalLogger.SetFormatter(&logrus.JSONFormatter{})
		hook.UserFormatter = &logrus.JSONFormatter{}
		hook.OpFormatter = &logrus.JSONFormatter{}
	} else {
		internalLogger.SetFormatter(&logrus.TextFormatter{}) // Dummy formatter
		hook.UserFormatter = &CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
		}
		colors := IsTerminal(hook.OpWriter)
		if opts.Verbose {
			hook.OpFormatter = &logrus.TextFormatter{
				FullTimestamp: true,
				ForceColors:   colors,
				DisableColors: !colors,
			}
		} else {
			hook.OpFormatter = &CLIFormatter{
				DisableTimestamp: true,
				DisableColors:    !colors,
			}
		}
	}

	internalLogger.AddHook(hook)

	User = &UserLogger{logger: internalLogger}
	Op = &OpLogger{logger: internalLogger}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// L returns the unified logger instance
func L() *UnifiedLogger {
	return log
}
