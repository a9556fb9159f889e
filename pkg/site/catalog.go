package site

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/entrhq/albumscout/pkg/browser"
	"github.com/entrhq/albumscout/pkg/logging"
)

// maxBodySize caps API responses read into memory.
const maxBodySize = 4 << 20

// CatalogOptions configures a CatalogFetcher.
type CatalogOptions struct {
	BaseURL string

	// Client issues the metadata call; a client with DefaultHTTPTimeout is
	// used when nil
	Client *http.Client

	// Headers defaults to DefaultHeaders with the session user agent
	Headers HeaderBuilder

	PageTimeout time.Duration
}

// CatalogFetcher reads album metadata with the cookies of the live session.
type CatalogFetcher struct {
	session     *browser.Session
	baseURL     string
	client      *http.Client
	headers     HeaderBuilder
	pageTimeout time.Duration
	logger      *logging.Logger
}

// NewCatalogFetcher creates a fetcher over session.
func NewCatalogFetcher(session *browser.Session, opts CatalogOptions, logger *logging.Logger) *CatalogFetcher {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if opts.Headers == nil {
		opts.Headers = DefaultHeaders(session.Fingerprint().UserAgent)
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if logger == nil {
		logger = logging.Discard("catalog")
	}
	return &CatalogFetcher{
		session:     session,
		baseURL:     trimBase(opts.BaseURL),
		client:      opts.Client,
		headers:     opts.Headers,
		pageTimeout: opts.PageTimeout,
		logger:      logger,
	}
}

type albumInfoEnvelope struct {
	Ret  int    `json:"ret"`
	Msg  string `json:"msg"`
	Data *struct {
		AlbumTitle string `json:"albumTitle"`
		IsFinished int    `json:"isFinished"`
		TrackCount int    `json:"trackCount"`
	} `json:"data"`
}

// GetAlbum opens the album page, then asks the metadata API for the album
// with the page as Referer and the session cookies attached.
func (f *CatalogFetcher) GetAlbum(ctx context.Context, albumID string) (*AlbumMetadata, error) {
	id, err := validateAlbumID(albumID)
	if err != nil {
		return nil, err
	}

	if err := f.session.EnsureReady(ctx); err != nil {
		return nil, err
	}

	landing := AlbumURL(f.baseURL, id)
	err = f.session.Navigate(ctx, landing, browser.NavigateOptions{
		WaitUntil: browser.WaitDOMContentLoaded,
		Timeout:   f.pageTimeout,
	})
	if err != nil {
		return nil, err
	}

	cookies, err := f.session.Cookies(landing)
	if err != nil {
		return nil, err
	}

	apiURL := f.baseURL + AlbumInfoPath + "?" + url.Values{"albumId": {id}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = f.headers(landing, SerializeCookies(cookies))

	f.logger.Debugf("Fetching album info %s with %d cookie(s)", apiURL, len(cookies))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: apiURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: apiURL, Status: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: apiURL, Status: resp.StatusCode, Body: body}
	}

	var envelope albumInfoEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{URL: apiURL, Status: resp.StatusCode, Body: body, Err: fmt.Errorf("failed to parse album info: %w", err)}
	}
	if envelope.Ret != successCode || envelope.Data == nil {
		f.logger.Errorf("Album info for %s returned ret=%d msg=%q", id, envelope.Ret, envelope.Msg)
		return nil, &FetchError{URL: apiURL, Status: resp.StatusCode, Code: envelope.Ret, Body: body}
	}
	if envelope.Data.TrackCount < 0 {
		return nil, &FetchError{URL: apiURL, Status: resp.StatusCode, Code: envelope.Ret, Body: body,
			Err: fmt.Errorf("negative track count %d", envelope.Data.TrackCount)}
	}

	return &AlbumMetadata{
		AlbumID:    id,
		AlbumTitle: envelope.Data.AlbumTitle,
		IsFinished: envelope.Data.IsFinished == 1,
		TrackCount: envelope.Data.TrackCount,
	}, nil
}
