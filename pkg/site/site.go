package site

import (
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the site root.
const DefaultBaseURL = "https://www.ximalaya.com"

// API paths relative to the base URL
const (
	CurrentUserPath = "/revision/main/getCurrentUser"
	AlbumInfoPath   = "/tdk-web/seo/search/albumInfo"
	TrackListPath   = "/revision/album/v1/getTracksList"
)

// successCode is the "ret" value of a successful API envelope.
const successCode = 200

// Defaults for site components
const (
	DefaultProbeSettle     = 2 * time.Second
	DefaultPageTimeout     = 60 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultResolverTimeout = 10 * time.Second
	DefaultListingSelector = ".sound-list"
	DefaultListingWait     = 10 * time.Second
	DefaultCaptureWindow   = 15 * time.Second
	DefaultCaptureSettle   = 1500 * time.Millisecond
	DefaultDeviceType      = "www"
)

// AlbumURL returns the landing page of an album.
func AlbumURL(baseURL, albumID string) string {
	return trimBase(baseURL) + "/album/" + url.PathEscape(albumID)
}

func trimBase(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// validateAlbumID trims id and requires a non-empty run of digits.
func validateAlbumID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", &ValidationError{Field: "albumId", Value: id, Reason: "must not be empty"}
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", &ValidationError{Field: "albumId", Value: id, Reason: "must be numeric"}
		}
	}
	return trimmed, nil
}
