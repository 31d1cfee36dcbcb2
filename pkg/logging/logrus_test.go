package logging

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture routes the root logger into a test hook and restores the defaults
// afterwards.
func capture(t *testing.T, lvl logrus.Level) *test.Hook {
	hook := new(test.Hook)
	require.NoError(t, Set(Output(io.Discard), Hooks(hook), Level(lvl)))
	t.Cleanup(func() {
		_ = Set(Output(io.Discard), Hooks(), Level(DefaultLevel))
	})
	return hook
}

func TestNewTagsComponent(t *testing.T) {
	hook := capture(t, logrus.InfoLevel)

	New("ec2ctl").WithField("instance", "i-1").Warn("slow")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "ec2ctl", entry.Data["component"])
	assert.Equal(t, "i-1", entry.Data["instance"])
	assert.Equal(t, logrus.WarnLevel, entry.Level)
}

func TestLevel(t *testing.T) {
	hook := capture(t, DefaultLevel)
	log := New("test")

	log.Debug("hidden")
	log.Info("hidden")
	assert.Empty(t, hook.AllEntries())

	require.NoError(t, Set(Level(logrus.DebugLevel)))
	log.Debug("shown")
	assert.Len(t, hook.AllEntries(), 1)
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	capture(t, logrus.InfoLevel)
	require.NoError(t, Set(Output(&buf)))

	New("test").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "component=test")
}

func TestSetStopsAtFirstError(t *testing.T) {
	capture(t, logrus.InfoLevel)
	failing := func(*logrus.Logger) error { return errors.New("boom") }

	err := Set(Level(logrus.ErrorLevel), failing, Level(logrus.TraceLevel))
	require.EqualError(t, err, "boom")
	assert.Equal(t, logrus.ErrorLevel, root.GetLevel())
}
