package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetMatcher_Matches(t *testing.T) {
	m, err := NewTargetMatcher([]string{"ximalaya.com", "*.ximalaya.com"})
	require.NoError(t, err)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.ximalaya.com/", true},
		{"https://ximalaya.com/album/1", true},
		{"http://m.ximalaya.com/sound/2", true},
		{"https://WWW.XIMALAYA.COM/", true},
		{"https://www.ximalaya.com:8443/", true},
		{"https://a.b.ximalaya.com/", false},
		{"https://ximalaya.com.evil.example/", false},
		{"https://notximalaya.com/", false},
		{"about:blank", false},
		{"chrome-error://chromewebdata/", false},
		{"", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Matches(tt.url))
		})
	}
}

func TestNewTargetMatcher_RequiresPattern(t *testing.T) {
	_, err := NewTargetMatcher(nil)
	assert.Error(t, err)

	_, err = NewTargetMatcher([]string{" ", ""})
	assert.Error(t, err)
}

func TestStealth(t *testing.T) {
	var s Stealth = BasicStealth{}
	assert.Equal(t, []string{"--disable-blink-features=AutomationControlled"}, s.LaunchArgs())
	assert.Equal(t, []string{"--enable-automation"}, s.IgnoredDefaultArgs())
	require.Len(t, s.InitScripts(), 1)
	assert.Contains(t, s.InitScripts()[0], "webdriver")

	s = NoStealth{}
	assert.Empty(t, s.LaunchArgs())
	assert.Empty(t, s.IgnoredDefaultArgs())
	assert.Empty(t, s.InitScripts())
}

func TestNavigationError(t *testing.T) {
	cause := assert.AnError
	err := &NavigationError{URL: "https://www.ximalaya.com", Attempts: 2, Err: cause}

	assert.Equal(t, "navigation to https://www.ximalaya.com failed after 2 attempt(s): "+cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
}
