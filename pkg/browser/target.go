package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// TargetMatcher decides whether a page location belongs to the target site.
// Patterns are host globs where '*' does not cross a dot: "*.ximalaya.com".
type TargetMatcher struct {
	patterns []glob.Glob
}

// NewTargetMatcher compiles host patterns.
func NewTargetMatcher(patterns []string) (*TargetMatcher, error) {
	m := &TargetMatcher{}
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid target domain pattern '%s': %w", pattern, err)
		}
		m.patterns = append(m.patterns, g)
	}
	if len(m.patterns) == 0 {
		return nil, fmt.Errorf("at least one target domain pattern is required")
	}
	return m, nil
}

// Matches reports whether rawURL is an http(s) location on a target host.
// about:blank and other non-web locations never match.
func (m *TargetMatcher) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, pattern := range m.patterns {
		if pattern.Match(host) {
			return true
		}
	}
	return false
}
