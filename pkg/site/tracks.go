package site

import (
	"context"
	"time"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/logging"
)

// ExtractorOptions configures a TrackListExtractor.
type ExtractorOptions struct {
	BaseURL string

	// ListingSelector marks the rendered track list
	ListingSelector string

	// ListingWait bounds the selector wait on its own
	ListingWait time.Duration

	// CaptureWindow bounds the whole wait for a captured listing
	CaptureWindow time.Duration

	// CaptureSettle is how long a capture may still arrive after the listing
	// renders
	CaptureSettle time.Duration

	PageTimeout time.Duration
}

// TrackListExtractor reads the track listing an album page requests for
// itself.
type TrackListExtractor struct {
	session *browser.Session
	baseURL string
	opts    ExtractorOptions
	logger  *logging.Logger
}

// NewTrackListExtractor creates an extractor over session.
func NewTrackListExtractor(session *browser.Session, opts ExtractorOptions, logger *logging.Logger) *TrackListExtractor {
	if opts.ListingSelector == "" {
		opts.ListingSelector = DefaultListingSelector
	}
	if opts.ListingWait == 0 {
		opts.ListingWait = DefaultListingWait
	}
	if opts.CaptureWindow == 0 {
		opts.CaptureWindow = DefaultCaptureWindow
	}
	if opts.CaptureSettle == 0 {
		opts.CaptureSettle = DefaultCaptureSettle
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if logger == nil {
		logger = logging.Discard("tracks")
	}
	return &TrackListExtractor{
		session: session,
		baseURL: trimBase(opts.BaseURL),
		opts:    opts,
		logger:  logger,
	}
}

// GetTracks opens the album page with pass-through interception and returns
// the track listing the page fetched.
//
// pageNum and pageSize are not sent anywhere: the page's own script decides
// what it requests, and the first page is what a fresh visit loads.
func (e *TrackListExtractor) GetTracks(ctx context.Context, albumID string, pageNum, pageSize int) (*TrackListResult, error) {
	id, err := validateAlbumID(albumID)
	if err != nil {
		return nil, err
	}

	if err := e.session.EnsureReady(ctx); err != nil {
		return nil, err
	}
	page, err := e.session.Page()
	if err != nil {
		return nil, err
	}

	e.logger.Debugf("Listing album %s (page %d, size %d requested; the page drives pagination)", id, pageNum, pageSize)

	capture := newTrackCapture(e.logger)
	remove := page.OnResponse(capture.observe)
	defer remove()

	if err := page.EnablePassThrough(); err != nil {
		return nil, err
	}
	defer func() {
		if err := page.DisablePassThrough(); err != nil {
			e.logger.Warnf("%v", err)
		}
	}()

	landing := AlbumURL(e.baseURL, id)
	err = e.session.Navigate(ctx, landing, browser.NavigateOptions{
		WaitUntil: browser.WaitDOMContentLoaded,
		Timeout:   e.opts.PageTimeout,
	})
	if err != nil {
		return nil, err
	}

	result, rendered, err := e.await(ctx, page, capture)
	if err != nil {
		return nil, err
	}
	if result != nil {
		e.logger.Infof("Captured %d of %d tracks for album %s", len(result.Tracks), result.TrackTotalCount, id)
		return result, nil
	}

	missing := &MissingDataError{AlbumID: id, URL: landing, ListingRendered: rendered}
	if content, err := page.Content(); err != nil {
		e.logger.Warnf("Failed to read page content: %v", err)
	} else if info, err := inspectPage(content, e.opts.ListingSelector); err != nil {
		e.logger.Warnf("Failed to inspect page: %v", err)
	} else {
		missing.PageTitle = info.Title
		missing.ListingRendered = rendered || info.ListingPresent
	}
	e.logger.Warnf("%v", missing)
	return nil, missing
}

// await races the listing selector against the capture under the capture
// window. A capture ends the wait at once. A rendered listing without a
// capture leaves CaptureSettle for one to arrive. A selector failure is only
// logged. The result is read after the wait whichever way it ended.
func (e *TrackListExtractor) await(ctx context.Context, page browser.Page, capture *trackCapture) (*TrackListResult, bool, error) {
	deadline := time.Now().Add(e.opts.CaptureWindow)
	window := time.NewTimer(e.opts.CaptureWindow)
	defer window.Stop()

	// Buffered so the waiter can finish after the race is decided
	selectorDone := make(chan error, 1)
	go func() {
		selectorDone <- page.WaitForSelector(e.opts.ListingSelector, e.opts.ListingWait)
	}()

	var (
		rendered bool
		grace    <-chan time.Time
	)
	for {
		select {
		case <-capture.Ready():
			return capture.Result(), rendered, nil

		case err := <-selectorDone:
			selectorDone = nil
			if err != nil {
				e.logger.Infof("Listing selector %s not found, still waiting for capture: %v", e.opts.ListingSelector, err)
				continue
			}
			rendered = true
			settle := e.opts.CaptureSettle
			if remaining := time.Until(deadline); remaining < settle {
				settle = remaining
			}
			grace = time.After(settle)

		case <-grace:
			return capture.Result(), rendered, nil

		case <-window.C:
			return capture.Result(), rendered, nil

		case <-ctx.Done():
			return nil, rendered, ctx.Err()
		}
	}
}
