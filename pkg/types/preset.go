package types

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
)

// Preset is a named catalogue pattern with the examples that document it.
type Preset struct {
	ID               string   `json:"id"`      // e.g., "patternkit.email"
	Name             string   `json:"name"`    // human-readable name
	Pattern          string   `json:"pattern"` // pattern text
	StructuralID     string   `json:"structural_id"`
	Description      string   `json:"description,omitempty"`
	Examples         []string `json:"examples,omitempty"`          // texts containing a match
	NegativeExamples []string `json:"negative_examples,omitempty"` // texts with no match
	References       []string `json:"references,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Keywords         []string `json:"keywords,omitempty"` // literals every match contains
}

// namedGroupRe matches named capture groups in either (?P<name>...) or
// (?<name>...) form. Naming a group does not change what a pattern matches.
var namedGroupRe = regexp.MustCompile(`\(\?P?<[A-Za-z_][A-Za-z0-9_]*>`)

// ComputeStructuralID computes the SHA-1 of the pattern with named groups
// normalised to plain groups.
func (p *Preset) ComputeStructuralID() string {
	normalized := namedGroupRe.ReplaceAllString(p.Pattern, "(")
	h := sha1.New()
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

// PresetSet groups presets that are matched as one alternation.
type PresetSet struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PresetIDs   []string `json:"preset_ids"`
}
