package site

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// pageInfo summarizes a rendered page for diagnostics.
type pageInfo struct {
	Title          string
	ListingPresent bool
}

// inspectPage extracts the title of rawHTML and whether an element matching
// the CSS selector exists.
func inspectPage(rawHTML, selector string) (*pageInfo, error) {
	match, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	return &pageInfo{
		Title:          strings.TrimSpace(doc.Find("title").First().Text()),
		ListingPresent: doc.FindMatcher(match).Length() > 0,
	}, nil
}

// compileSelector parses a CSS selector group. goquery's Find treats an
// invalid selector as matching nothing, so it is compiled here first.
func compileSelector(selector string) (cascadia.Selector, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("listing selector is empty")
	}
	match, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid listing selector %q: %w", selector, err)
	}
	return match, nil
}
