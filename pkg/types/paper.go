// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-feed pipeline:
// the Paper record produced by the parser, the Snapshot persisted by the
// writer, and the configuration passed into each stage.
package types

// Paper is one publication retrieved from the arXiv feed. Records are built
// once by the parser and never mutated afterwards.
type Paper struct {
	// ID is the path suffix after "/abs/" in the entry id (e.g. "2301.07041v1").
	ID string `json:"id" yaml:"id"`

	// Title is the whitespace-normalized paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in feed order. Never empty.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the RFC 3339 publication timestamp exactly as the feed
	// reported it (e.g. "2026-02-12T18:59:59Z").
	Published string `json:"published" yaml:"published"`

	// Abstract is the trimmed paper summary. Never empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PDFURL links to the paper PDF, synthesized from ID when the feed has none.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Categories lists the category terms attached to the entry, in feed order.
	Categories []string `json:"categories" yaml:"categories"`
}

// Snapshot is the persisted artifact consumed by the display page.
type Snapshot struct {
	// LastUpdated is the snapshot creation time in the configured fixed zone.
	LastUpdated string `json:"last_updated" yaml:"last_updated"`

	// TotalPapers always equals len(Papers).
	TotalPapers int `json:"total_papers" yaml:"total_papers"`

	// Categories is the configured category list that was queried.
	Categories []string `json:"categories" yaml:"categories"`

	// Papers is sorted by Published descending and capped at FeedConfig.MaxPapers.
	Papers []Paper `json:"papers" yaml:"papers"`
}
