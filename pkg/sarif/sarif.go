// Package sarif renders scan results as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "patternkit"

	// Match columns count characters, not UTF-16 code units.
	ColumnKind = "unicodeCodePoints"
)

// Report is a SARIF log with a single run.
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool       Tool     `json:"tool"`
	ColumnKind string   `json:"columnKind"`
	Results    []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule is the SARIF reporting descriptor for one preset.
type Rule struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ShortDescription Message `json:"shortDescription"`
	HelpURI          string  `json:"helpUri,omitempty"`
}

type Result struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             Message           `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	CharOffset  int      `json:"charOffset"`
	CharLength  int      `json:"charLength"`
	Snippet     *Message `json:"snippet,omitempty"`
}

// NewReport creates an empty report for the given tool version.
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:    ToolName,
				Version: toolVersion,
				Rules:   []Rule{},
			}},
			ColumnKind: ColumnKind,
			Results:    []Result{},
		}},
	}
}

// AddPreset registers a preset as a rule. Re-adding an ID is a no-op.
func (r *Report) AddPreset(p *types.Preset) {
	if r.ruleIndex(p.ID) >= 0 {
		return
	}

	rule := Rule{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: Message{Text: p.Description},
	}
	if rule.ShortDescription.Text == "" {
		rule.ShortDescription.Text = p.Name
	}
	if len(p.References) > 0 {
		rule.HelpURI = p.References[0]
	}

	driver := &r.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, rule)
}

// AddMatch records a match found in source. A preset not yet registered
// is added as a bare rule.
func (r *Report) AddMatch(m *types.Match, source string) {
	idx := r.ruleIndex(m.PresetID)
	if idx < 0 {
		r.AddPreset(&types.Preset{ID: m.PresetID, Name: m.PresetName})
		idx = len(r.Runs[0].Tool.Driver.Rules) - 1
	}

	region := Region{
		StartLine:   m.Location.Source.Start.Line,
		StartColumn: m.Location.Source.Start.Column,
		EndLine:     m.Location.Source.End.Line,
		EndColumn:   m.Location.Source.End.Column,
		CharOffset:  m.Location.Offset.Start,
		CharLength:  m.Location.Offset.End - m.Location.Offset.Start,
	}
	if m.Text != "" {
		region.Snippet = &Message{Text: m.Text}
	}

	result := Result{
		RuleID:    m.PresetID,
		RuleIndex: idx,
		Level:     "note",
		Message:   Message{Text: m.PresetName},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: formatFileURI(source)},
				Region:           region,
			},
		}},
	}
	if m.StructuralID != "" {
		result.PartialFingerprints = map[string]string{"matchStructuralId/v1": m.StructuralID}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// AddBatch records every match of a batch scan.
func (r *Report) AddBatch(batch *scanner.BatchScanResult) {
	for _, res := range batch.Results {
		for _, m := range res.Matches {
			r.AddMatch(m, res.Source)
		}
	}
}

// ToJSON serializes the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func (r *Report) ruleIndex(id string) int {
	for i, rule := range r.Runs[0].Tool.Driver.Rules {
		if rule.ID == id {
			return i
		}
	}
	return -1
}

// formatFileURI gives absolute paths a file:// scheme and leaves relative
// paths (and pseudo-sources such as "stdin") as slash-separated text.
func formatFileURI(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
