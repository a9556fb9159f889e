package site

import (
	"net/http"
	"strings"

	"github.com/entrhq/albumscout/pkg/browser"
)

// HeaderBuilder builds the headers of an out-of-band API call that has to
// look like a sub-request of the page at referer.
type HeaderBuilder func(referer, cookie string) http.Header

// DefaultHeaders returns a HeaderBuilder presenting userAgent, the same one
// the browser uses.
func DefaultHeaders(userAgent string) HeaderBuilder {
	return func(referer, cookie string) http.Header {
		h := http.Header{}
		h.Set("User-Agent", userAgent)
		h.Set("Accept", "application/json, text/plain, */*")
		h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
		if referer != "" {
			h.Set("Referer", referer)
		}
		if cookie != "" {
			h.Set("Cookie", cookie)
		}
		return h
	}
}

// SerializeCookies joins cookies into one Cookie header value in the order
// given: "a=1; b=2".
func SerializeCookies(cookies []browser.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
