// Package source provides the adapters that turn fetched content into event
// candidates.
//
// Feeds are read with gofeed, calendar pages with goquery through a registry
// of per-host strategies, embedded schema.org data from ld+json scripts, and
// search API responses as JSON. Adapters never panic on bad input; they
// return a *Failure classified as parse, network or blocked.
package source
