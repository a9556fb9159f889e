package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvProfileDir = "ALBUMSCOUT_PROFILE_DIR"
	EnvBaseURL    = "ALBUMSCOUT_BASE_URL"
	EnvExecutable = "ALBUMSCOUT_EXECUTABLE"
	EnvHeadless   = "ALBUMSCOUT_HEADLESS"
)

// LoadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides settings with the ALBUMSCOUT_* variables that are set.
func ApplyEnv(b *BrowserSettings, s *SiteSettings) {
	if v := os.Getenv(EnvProfileDir); v != "" {
		b.ProfileDir = v
	}
	if v := os.Getenv(EnvExecutable); v != "" {
		b.ExecutablePath = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			b.Headless = headless
		}
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
}
