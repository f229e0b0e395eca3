package domain

import "time"

// MashupResult summarises a finished mashup run.
type MashupResult struct {
	Artist          string        `json:"artist"`
	OutputPath      string        `json:"outputPath"`
	ResolvedCount   int           `json:"resolvedCount"`
	DownloadedCount int           `json:"downloadedCount"`
	ProcessedCount  int           `json:"processedCount"`
	ClipSeconds     int           `json:"clipSeconds"`
	Elapsed         time.Duration `json:"elapsed"`
}
