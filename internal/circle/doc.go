// Package circle provides types and functions for turning scraped catalog exhibitors
// ("circles") into canonical records.
//
// The circle package handles the raw page-state representation, the field-level parsers
// (booth codes, social links, fandom tags, works types, sample images), record assembly,
// curator overrides, the validation summary, and the canonical serialization used for
// snapshot change detection. Everything here is a pure in-memory transformation; file and
// network access live in the storage and scraper packages.
package circle
