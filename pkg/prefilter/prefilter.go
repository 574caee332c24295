// Package prefilter narrows a preset list to the presets that can possibly
// match a text, using an Aho-Corasick scan over preset keywords.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

// Prefilter maps keyword hits back to the presets that declared them.
// Presets without keywords are always candidates.
type Prefilter struct {
	presets   []*types.Preset
	matcher   *ahocorasick.Matcher
	keywords  []string // dictionary passed to the matcher
	byKeyword [][]int  // keyword index -> preset indices
	always    []bool   // preset index -> has no keywords
}

// New builds a prefilter over presets.
func New(presets []*types.Preset) *Prefilter {
	pf := &Prefilter{
		presets: presets,
		always:  make([]bool, len(presets)),
	}

	index := make(map[string]int)
	for i, p := range presets {
		if len(p.Keywords) == 0 {
			pf.always[i] = true
			continue
		}
		for _, keyword := range p.Keywords {
			k, ok := index[keyword]
			if !ok {
				k = len(pf.keywords)
				index[keyword] = k
				pf.keywords = append(pf.keywords, keyword)
				pf.byKeyword = append(pf.byKeyword, nil)
			}
			pf.byKeyword[k] = append(pf.byKeyword[k], i)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the candidate presets for content in catalogue order.
// Keyword matching is case-sensitive.
func (pf *Prefilter) Filter(content []byte) []*types.Preset {
	selected := make([]bool, len(pf.presets))
	copy(selected, pf.always)

	if pf.matcher != nil {
		for _, hit := range pf.matcher.Match(content) {
			for _, i := range pf.byKeyword[hit] {
				selected[i] = true
			}
		}
	}

	result := make([]*types.Preset, 0, len(pf.presets))
	for i, ok := range selected {
		if ok {
			result = append(result, pf.presets[i])
		}
	}
	return result
}

// FilterString is Filter for string content.
func (pf *Prefilter) FilterString(content string) []*types.Preset {
	return pf.Filter([]byte(content))
}

// Keywords returns the distinct keywords in first-seen order.
func (pf *Prefilter) Keywords() []string {
	return append([]string(nil), pf.keywords...)
}
