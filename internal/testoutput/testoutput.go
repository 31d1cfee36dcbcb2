package testoutput

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vladvasiliu/aws-start-stop/pkg/logging"
)

// New returns a writer that sends lines to the test's log.
func New(t testing.TB) io.Writer {
	return &testoutput{t}
}

// Logger returns a component logger whose output is interlaced with the
// test's own output. The logger is detached from the root logger so parallel
// tests do not write into each other.
func Logger(t testing.TB, component string) logging.Logger {
	l := logrus.New()
	l.SetOutput(New(t))
	l.SetLevel(logrus.DebugLevel)
	return l.WithField("component", component)
}

type testoutput struct {
	t testing.TB
}

func (l *testoutput) Write(p []byte) (n int, err error) {
	l.t.Logf("%s", p)
	return len(p), nil
}
