// Package site reads login state, album metadata and track listings from the
// site through a browser.Session.
//
// Each component takes the session explicitly and calls EnsureReady before
// touching the page. Components share the session's single page, so calls
// must not overlap.
//
//   - LoginProbe asks the identity endpoint from inside the page, so the
//     browser supplies the cookies. It never fails; doubt means logged out.
//   - CatalogFetcher opens the album page, then calls the metadata API
//     directly with the page as Referer and the session cookies attached.
//   - TrackListExtractor opens the album page with pass-through interception
//     and keeps the listing the page requested for itself.
//   - LinkResolver hands media tokens to an external TokenResolver.
//
// Failures are typed: ValidationError, FetchError, MissingDataError and
// DecryptError here, browser.NavigationError from the session.
package site
