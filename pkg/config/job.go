package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job is a batch run file: which albums to inspect and what to fetch.
//
//	check_login: true
//	albums:
//	  - id: "3475911"
//	    metadata: true
//	    tracks: true
//	    page: 1
//	    size: 30
type Job struct {
	CheckLogin bool       `yaml:"check_login" json:"check_login"`
	Albums     []JobAlbum `yaml:"albums" json:"albums"`
}

// JobAlbum is one album entry of a Job.
type JobAlbum struct {
	ID       string `yaml:"id" json:"id"`
	Metadata *bool  `yaml:"metadata" json:"metadata"`
	Tracks   *bool  `yaml:"tracks" json:"tracks"`
	Page     int    `yaml:"page" json:"page"`
	Size     int    `yaml:"size" json:"size"`
}

const (
	defaultJobPage = 1
	defaultJobSize = 30
)

// WantsMetadata reports whether album metadata should be fetched (default true).
func (a JobAlbum) WantsMetadata() bool {
	return a.Metadata == nil || *a.Metadata
}

// WantsTracks reports whether the track listing should be extracted (default true).
func (a JobAlbum) WantsTracks() bool {
	return a.Tracks == nil || *a.Tracks
}

// LoadJob reads and validates a YAML job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the job and fills in paging defaults.
func (j *Job) Validate() error {
	if len(j.Albums) == 0 {
		return fmt.Errorf("job must list at least one album")
	}

	for i := range j.Albums {
		album := &j.Albums[i]
		album.ID = strings.TrimSpace(album.ID)
		if album.ID == "" {
			return fmt.Errorf("albums[%d]: id is required", i)
		}
		if !album.WantsMetadata() && !album.WantsTracks() {
			return fmt.Errorf("albums[%d]: nothing to fetch for album %s", i, album.ID)
		}
		if album.Page < 0 || album.Size < 0 {
			return fmt.Errorf("albums[%d]: page and size cannot be negative", i)
		}
		if album.Page == 0 {
			album.Page = defaultJobPage
		}
		if album.Size == 0 {
			album.Size = defaultJobSize
		}
	}
	return nil
}
