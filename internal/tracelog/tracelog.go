// Package tracelog provides an injectable diagnostic logger for the
// saturation and linearization engines.
//
// The teacher (mvcc-isolation) gates a package-level debug() helper behind
// a process-wide `var DEBUG = slices.Contains(os.Args, "--debug")`. A
// fixpoint/search engine that is supposed to be a pure function of its
// inputs and SearchOptions should not read process-wide state, so this
// logger is always passed explicitly and defaults to discarding everything.
package tracelog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the narrow interface the core depends on.
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

// Discard is a Logger that drops every entry. Use it as the default when
// the caller supplies no logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Entry adapts an optional *logrus.Logger (nil-safe) into an entry usable
// without further nil checks at call sites.
func Entry(l *logrus.Logger) *logrus.Entry {
	if l == nil {
		l = Discard()
	}
	return logrus.NewEntry(l)
}
