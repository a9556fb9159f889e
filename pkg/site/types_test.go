package site

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackMetadata_PassThrough(t *testing.T) {
	raw := `{"index":3,"trackId":456,"title":"第三集","url":"/sound/456","duration":1800,"isPaid":false,"tag":{"x":[1,2]}}`

	var track TrackMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &track))

	assert.Equal(t, int64(456), track.TrackID)
	assert.Equal(t, "第三集", track.Title)
	assert.Equal(t, 3, track.Index)
	assert.Equal(t, "/sound/456", track.URL)
	assert.Equal(t, 1800, track.Duration)

	out, err := json.Marshal(track)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestTrackMetadata_LenientFields(t *testing.T) {
	var track TrackMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"trackId":"not-a-number","title":"t"}`), &track))
	assert.Zero(t, track.TrackID)
	assert.JSONEq(t, `{"trackId":"not-a-number","title":"t"}`, string(track.Raw))
}

func TestTrackMetadata_RejectsNonObject(t *testing.T) {
	var track TrackMetadata
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &track))
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &track))
}

func TestTrackMetadata_MarshalWithoutRaw(t *testing.T) {
	out, err := json.Marshal(TrackMetadata{TrackID: 1, Title: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"trackId":1,"title":"t","index":0,"url":"","duration":0}`, string(out))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `invalid albumId "": must not be empty`,
		(&ValidationError{Field: "albumId", Reason: "must not be empty"}).Error())

	assert.Equal(t, "fetch u failed (status 200, code 500)",
		(&FetchError{URL: "u", Status: 200, Code: 500}).Error())

	missing := &MissingDataError{AlbumID: "1", URL: "u", PageTitle: "t", ListingRendered: true}
	assert.Contains(t, missing.Error(), "album 1")
	assert.Contains(t, missing.Error(), "listing rendered: true")
}
