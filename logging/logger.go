// ABOUTME: Process-wide logrus logger with optional lumberjack file rotation
// ABOUTME: Components log through Logger() with structured fields
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   = logrus.New()
	initOnce sync.Once
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Quiet      bool
}

// CustomFormatter writes one line per entry with the date, level, component and fields.
type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("%s %s [%s] %s",
		entry.Time.Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level.String()),
		f.SystemName,
		entry.Message,
	))

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init configures the shared logger. Only the first call has any effect.
func Init(opts Options) {
	initOnce.Do(func() {
		var out io.Writer = os.Stderr
		if opts.Quiet {
			out = io.Discard
		}

		if opts.File != "" {
			if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
				logrus.Warnf("Failed to create log directory: %v", err)
			} else {
				out = &lumberjack.Logger{
					Filename:   opts.File,
					MaxSize:    nonZero(opts.MaxSizeMB, 10),
					MaxBackups: nonZero(opts.MaxBackups, 3),
					MaxAge:     nonZero(opts.MaxAgeDays, 28),
					Compress:   true,
				}
			}
		}

		logger.SetOutput(out)
		logger.SetFormatter(&CustomFormatter{SystemName: "crmdesk"})

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	})
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

func nonZero(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
