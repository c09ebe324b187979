// Package scraper fetches the circle catalog page and extracts its
// embedded page state.
//
// The catalog is server-rendered: the exhibitor listing ships inside an
// inline script as `window.__INITIAL_STATE__ = {...};`. Fetch downloads the
// page (honoring robots.txt unless disabled) and ExtractInitialState pulls
// the JSON out, falling back to a few other framework state globals.
package scraper
