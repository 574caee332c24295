package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
)

// Request is one NDJSON request line.
type Request struct {
	Type    string          `json:"type"` // "scan" | "scan_batch" | "op" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ScanPayload is the payload for "scan" requests.
type ScanPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ScanBatchPayload is the payload for "scan_batch" requests.
type ScanBatchPayload struct {
	Items []scanner.ContentItem `json:"items"`
}

// OpPayload runs one matching operation. Exactly one of Pattern and Preset
// names the strategy; Preset is looked up among the scanner's presets.
type OpPayload struct {
	Op       string `json:"op"`
	Pattern  string `json:"pattern,omitempty"`
	Preset   string `json:"preset,omitempty"`
	Text     string `json:"text"`
	Group    int    `json:"group,omitempty"`
	Start    int    `json:"start,omitempty"`
	Template string `json:"template,omitempty"`
}

// OpResult carries an operation's value: a bool, string, string list,
// integer or integer list depending on the op. A "first" that finds
// nothing has a null value.
type OpResult struct {
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Response is one NDJSON response line.
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "scan" | "scan_batch" | "op" | error source
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data of the "ready" response.
type ReadyData struct {
	Version string   `json:"version"`
	Presets []string `json:"presets"`
	Ops     []string `json:"ops"`
}
