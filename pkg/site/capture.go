package site

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/logging"
)

type trackListEnvelope struct {
	Ret  int              `json:"ret"`
	Msg  string           `json:"msg"`
	Data *TrackListResult `json:"data"`
}

// trackCapture collects track listings from observed responses. When several
// listings arrive the one whose response arrived last wins.
type trackCapture struct {
	logger *logging.Logger

	mu       sync.Mutex
	arrivals uint64
	bestSeq  uint64
	result   *TrackListResult
	ready    chan struct{}
}

func newTrackCapture(logger *logging.Logger) *trackCapture {
	if logger == nil {
		logger = logging.Discard("tracks")
	}
	return &trackCapture{
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// observe is the response listener. Bodies are read off the driver's event
// goroutine.
func (c *trackCapture) observe(resp browser.Response) {
	if !strings.Contains(resp.URL(), TrackListPath) {
		return
	}

	c.mu.Lock()
	c.arrivals++
	seq := c.arrivals
	c.mu.Unlock()

	go c.read(seq, resp)
}

func (c *trackCapture) read(seq uint64, resp browser.Response) {
	body, err := resp.Body()
	if err != nil {
		c.logger.Warnf("Failed to read track list response %s: %v", resp.URL(), err)
		return
	}

	result, err := parseTrackList(body)
	if err != nil {
		c.logger.Warnf("Ignoring track list response %s: %v", resp.URL(), err)
		return
	}
	c.store(seq, result)
}

func (c *trackCapture) store(seq uint64, result *TrackListResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.bestSeq {
		return
	}
	first := c.result == nil
	c.bestSeq = seq
	c.result = result
	if first {
		close(c.ready)
	}
}

// Ready is closed once the first listing is stored.
func (c *trackCapture) Ready() <-chan struct{} {
	return c.ready
}

// Result returns the current winner or nil.
func (c *trackCapture) Result() *TrackListResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// parseTrackList decodes a listing envelope and accepts only ret == 200.
func parseTrackList(body []byte) (*TrackListResult, error) {
	var envelope trackListEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse track list: %w", err)
	}
	if envelope.Ret != successCode {
		return nil, fmt.Errorf("track list returned ret=%d msg=%q", envelope.Ret, envelope.Msg)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("track list has no data")
	}
	if envelope.Data.TrackTotalCount < 0 {
		return nil, fmt.Errorf("negative track total %d", envelope.Data.TrackTotalCount)
	}
	if envelope.Data.Tracks == nil {
		envelope.Data.Tracks = []TrackMetadata{}
	}
	return envelope.Data, nil
}
