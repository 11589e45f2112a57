package ingest

import "time"

// RawNotice is one announcement as scraped from a source board, before AI
// extraction.
type RawNotice struct {
	SourceDomain string
	SourceID     string
	Title        string
	ExternalURL  string
	Category     string
	Body         string // plain text
	RawHTML      string
	PostedAt     *time.Time
	PDFLinks     []string
}

// IngestionStats summarizes a single source run.
type IngestionStats struct {
	SourceID string `json:"source_id"`
	Found    int    `json:"found"`
	Saved    int    `json:"saved"`
	Errors   int    `json:"errors"`
}
