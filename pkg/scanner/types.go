package scanner

import "github.com/praetorian-inc/patternkit/pkg/types"

// ContentItem is one named text in a batch scan.
type ContentItem struct {
	Source   string            `json:"source"`  // e.g., "stdin", a file path
	Content  string            `json:"content"` // the text to scan
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScanResult holds the matches for a single item.
type ScanResult struct {
	Source  string         `json:"source"`
	Matches []*types.Match `json:"matches"`
}

// BatchScanResult holds per-item results and the total match count.
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}
