package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Match is one occurrence of a preset in scanned text.
type Match struct {
	StructuralID string   `json:"structural_id"` // SHA-1(preset_structural_id + '\0' + start + '\0' + end)
	PresetID     string   `json:"preset_id"`
	PresetName   string   `json:"preset_name"`
	Text         string   `json:"text"`
	Location     Location `json:"location"`
	Groups       []string `json:"groups,omitempty"` // capture groups 1..n
	Snippet      Snippet  `json:"snippet"`
}

// ComputeStructuralID identifies a match by preset and position.
func (m *Match) ComputeStructuralID(presetStructuralID string) string {
	h := sha1.New()
	h.Write([]byte(presetStructuralID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(m.Location.Offset.Start)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(m.Location.Offset.End)))
	return hex.EncodeToString(h.Sum(nil))
}
