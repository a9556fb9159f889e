package site

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LoginState is the result of an identity probe.
type LoginState struct {
	IsLoggedIn bool      `json:"isLoggedIn"`
	Identity   *Identity `json:"identity,omitempty"`
}

// Identity is the account the browser profile is signed in as.
type Identity struct {
	UID      int64  `json:"uid"`
	Nickname string `json:"nickname"`
	IsBanned bool   `json:"isBanned"`
}

// AlbumMetadata is the catalog entry of an album.
type AlbumMetadata struct {
	AlbumID    string `json:"albumId"`
	AlbumTitle string `json:"albumTitle"`
	IsFinished bool   `json:"isFinished"`
	TrackCount int    `json:"trackCount"`
}

// TrackListResult is one captured page of an album listing. Tracks keep the
// order of the captured response.
type TrackListResult struct {
	TrackTotalCount int             `json:"trackTotalCount"`
	Tracks          []TrackMetadata `json:"tracks"`
}

// TrackMetadata is a track as the site sent it. The raw object is kept
// verbatim; the exported fields are decoded for convenience and never written
// back.
type TrackMetadata struct {
	Raw json.RawMessage `json:"-"`

	TrackID  int64  `json:"-"`
	Title    string `json:"-"`
	Index    int    `json:"-"`
	URL      string `json:"-"`
	Duration int    `json:"-"`
}

type trackFields struct {
	TrackID  int64  `json:"trackId"`
	Title    string `json:"title"`
	Index    int    `json:"index"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// UnmarshalJSON keeps data as Raw. Convenience fields of an unexpected type
// are left zero rather than failing the whole listing.
func (t *TrackMetadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("track must be a JSON object, got %.20q", string(trimmed))
	}

	t.Raw = append(json.RawMessage(nil), trimmed...)

	var fields trackFields
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		t.TrackID = fields.TrackID
		t.Title = fields.Title
		t.Index = fields.Index
		t.URL = fields.URL
		t.Duration = fields.Duration
	}
	return nil
}

// MarshalJSON writes Raw back unchanged.
func (t TrackMetadata) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	return json.Marshal(trackFields{
		TrackID:  t.TrackID,
		Title:    t.Title,
		Index:    t.Index,
		URL:      t.URL,
		Duration: t.Duration,
	})
}

// ResolvedLink is a playable URL produced from an obfuscated token.
type ResolvedLink struct {
	SourceToken string `json:"sourceToken"`
	DeviceType  string `json:"deviceType"`
	ResolvedURL string `json:"resolvedUrl"`
}
