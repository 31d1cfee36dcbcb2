// Package logging holds the process-wide logrus logger. Components get a child
// logger tagged with their name; the entry point decides where output goes.
package logging

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultLevel keeps a run quiet unless something goes wrong.
const DefaultLevel = logrus.WarnLevel

// Setter mutates the root logger.
type Setter func(*logrus.Logger) error

var (
	rootMu sync.Mutex
	root   = newRoot()
)

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(DefaultLevel)
	return l
}

// Logger is handed to every component.
type Logger interface {
	logrus.FieldLogger

	Writer() *io.PipeWriter
	WriterLevel(logrus.Level) *io.PipeWriter
}

// New returns a Logger for the named component.
func New(component string) Logger {
	return root.WithField("component", component)
}

// Set applies setters to the root logger in order, stopping at the first
// error.
func Set(setters ...Setter) error {
	rootMu.Lock()
	defer rootMu.Unlock()
	for _, setter := range setters {
		if err := setter(root); err != nil {
			return err
		}
	}
	return nil
}

// Level sets the root level.
func Level(lvl logrus.Level) Setter {
	return func(r *logrus.Logger) error {
		r.SetLevel(lvl)
		return nil
	}
}

// Output redirects the root logger's own output. Hooks still fire.
func Output(w io.Writer) Setter {
	return func(r *logrus.Logger) error {
		r.SetOutput(w)
		return nil
	}
}

// Hooks replaces the root logger's hooks.
func Hooks(hooks ...logrus.Hook) Setter {
	return func(r *logrus.Logger) error {
		levelHooks := make(logrus.LevelHooks)
		for _, h := range hooks {
			levelHooks.Add(h)
		}
		r.ReplaceHooks(levelHooks)
		return nil
	}
}
