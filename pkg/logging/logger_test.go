package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points the log directory at a temp home and resets global state
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()

	origHome := userHomeDir
	userHomeDir = func() (string, error) { return home, nil }
	logDir = ""
	initErr = nil
	initOnce = sync.Once{}
	sessionID = ""
	sessionIDOnce = sync.Once{}

	t.Cleanup(func() {
		userHomeDir = origHome
		logDir = ""
		initErr = nil
		initOnce = sync.Once{}
		sessionID = ""
		sessionIDOnce = sync.Once{}
	})
	return home
}

func TestNewLogger(t *testing.T) {
	home := setupTestHome(t)

	logger, err := NewLogger("session")
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "session", logger.component)
	assert.NotEmpty(t, logger.SessionID())
	assert.True(t, strings.HasPrefix(logger.LogPath(), filepath.Join(home, ".albumscout", "logs")))

	_, statErr := os.Stat(logger.LogPath())
	assert.NoError(t, statErr)
}

func TestLoggerFormatting(t *testing.T) {
	setupTestHome(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	logger.Printf("Test message %d", 123)
	logger.Debugf("Debug message")
	logger.Infof("Info message")
	logger.Warnf("Warning message")
	logger.Errorf("Error message")

	content, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)

	for _, pattern := range []string{
		"[test] [INFO] Test message 123",
		"[test] [DEBUG] Debug message",
		"[test] [INFO] Info message",
		"[test] [WARN] Warning message",
		"[test] [ERROR] Error message",
	} {
		assert.Contains(t, string(content), pattern)
	}
}

func TestMultipleComponentsShareRunFile(t *testing.T) {
	setupTestHome(t)

	l1, err := NewLogger("catalog")
	require.NoError(t, err)
	defer l1.Close()
	l2, err := NewLogger("tracks")
	require.NoError(t, err)
	defer l2.Close()

	assert.Equal(t, l1.SessionID(), l2.SessionID())
	assert.Equal(t, l1.LogPath(), l2.LogPath())

	l1.Infof("from catalog")
	l2.Infof("from tracks")

	content, err := os.ReadFile(l1.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(content), "[catalog]")
	assert.Contains(t, string(content), "[tracks]")
}

func TestWriterLogger(t *testing.T) {
	setupTestHome(t)

	var buf bytes.Buffer
	logger := NewWriterLogger("probe", &buf)
	logger.Warnf("identity call failed: %s", "boom")

	assert.Contains(t, buf.String(), "[probe] [WARN] identity call failed: boom")
	assert.Empty(t, logger.LogPath())
	assert.NoError(t, logger.Close())
}

func TestWith(t *testing.T) {
	setupTestHome(t)

	var buf bytes.Buffer
	base := NewWriterLogger("driver", &buf)
	child := base.With("session")
	child.Infof("ready")

	assert.Contains(t, buf.String(), "[session] [INFO] ready")
	assert.Equal(t, base.SessionID(), child.SessionID())
}

func TestLoggerCloseTwice(t *testing.T) {
	setupTestHome(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)

	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestLogPathFormat(t *testing.T) {
	setupTestHome(t)

	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	fileName := filepath.Base(logger.LogPath())
	require.True(t, strings.HasSuffix(fileName, "-albumscout.log"), fileName)
	assert.Contains(t, strings.TrimSuffix(fileName, "-albumscout.log"), "-")
}

func TestGetLogDirectory(t *testing.T) {
	home := setupTestHome(t)

	dir, err := GetLogDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".albumscout", "logs"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
