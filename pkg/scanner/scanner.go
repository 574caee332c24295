// Package scanner runs a list of presets over text and reports every
// occurrence with its position and surrounding line.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/prefilter"
	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scanner holds one compiled strategy per preset. It is safe for
// concurrent use.
type Scanner struct {
	presets    []*types.Preset
	strategies map[*types.Preset]strategy.Strategy
	prefilter  *prefilter.Prefilter
	cfg        config
}

// New compiles presets. A preset that does not compile is an error unless
// the scanner is tolerant, in which case it is logged and left out.
func New(presets []*types.Preset, opts ...Option) (*Scanner, error) {
	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets provided")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Scanner{
		strategies: make(map[*types.Preset]strategy.Strategy, len(presets)),
		cfg:        cfg,
	}
	for _, p := range presets {
		st, err := preset.Strategy(p, strategy.WithEngine(cfg.engine))
		if err != nil {
			if !cfg.tolerant {
				return nil, err
			}
			cfg.logger.Warn("skipping preset that does not compile",
				zap.String("preset", p.ID), zap.Error(err))
			continue
		}
		s.presets = append(s.presets, p)
		s.strategies[p] = st
	}
	if len(s.presets) == 0 {
		return nil, fmt.Errorf("none of %d presets compiled", len(presets))
	}

	s.prefilter = prefilter.New(s.presets)
	cfg.logger.Debug("scanner ready",
		zap.Int("presets", len(s.presets)),
		zap.String("engine", cfg.engine.Name()),
		zap.Strings("keywords", s.prefilter.Keywords()))
	return s, nil
}

// Presets returns the presets the scanner searches for.
func (s *Scanner) Presets() []*types.Preset {
	return append([]*types.Preset(nil), s.presets...)
}

// Scan is ScanContext with a background context.
func (s *Scanner) Scan(text string) ([]*types.Match, error) {
	return s.ScanContext(context.Background(), text)
}

// ScanContext searches text for every candidate preset and returns the
// matches ordered by start offset, then preset ID, then end offset.
func (s *Scanner) ScanContext(ctx context.Context, text string) ([]*types.Match, error) {
	candidates := s.prefilter.FilterString(text)
	s.cfg.logger.Debug("prefilter",
		zap.Int("candidates", len(candidates)), zap.Int("presets", len(s.presets)))

	runes := []rune(text)
	lines := types.NewLineIndex(runes)

	var (
		mu      sync.Mutex
		matches []*types.Match
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.workers)
	for _, p := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found, err := s.scanPreset(p, text, runes, lines)
			if err != nil {
				return err
			}
			mu.Lock()
			matches = append(matches, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortMatches(matches)
	return matches, nil
}

func (s *Scanner) scanPreset(p *types.Preset, text string, runes []rune, lines types.LineIndex) ([]*types.Match, error) {
	occurrences, err := s.strategies[p].Occurrences(text)
	if err != nil {
		if !s.cfg.tolerant {
			return nil, fmt.Errorf("preset %s: %w", p.ID, err)
		}
		if errors.Is(err, engine.ErrMatchTimeout) {
			s.cfg.logger.Warn("preset timed out, skipping", zap.String("preset", p.ID))
		} else {
			s.cfg.logger.Warn("preset failed, skipping", zap.String("preset", p.ID), zap.Error(err))
		}
		return nil, nil
	}

	out := make([]*types.Match, 0, len(occurrences))
	for _, occ := range occurrences {
		m := &types.Match{
			PresetID:   p.ID,
			PresetName: p.Name,
			Text:       occ.Groups[0],
			Location: types.Location{
				Offset: types.OffsetSpan{Start: occ.Start, End: occ.End},
				Source: lines.Span(occ.Start, occ.End),
			},
			Snippet: types.ExtractSnippet(runes, occ.Start, occ.End, s.cfg.snippetContext),
		}
		if len(occ.Groups) > 1 {
			m.Groups = occ.Groups[1:]
		}
		m.StructuralID = m.ComputeStructuralID(p.StructuralID)
		out = append(out, m)
	}
	return out, nil
}

// ScanBatch scans each item in turn. Items that fail are logged and left
// out of the result.
func (s *Scanner) ScanBatch(items []ContentItem) (*BatchScanResult, error) {
	batch := &BatchScanResult{Results: make([]ScanResult, 0, len(items))}

	for _, item := range items {
		matches, err := s.Scan(item.Content)
		if err != nil {
			s.cfg.logger.Warn("skipping item that failed to scan",
				zap.String("source", item.Source), zap.Error(err))
			continue
		}
		batch.Results = append(batch.Results, ScanResult{
			Source:  item.Source,
			Matches: matches,
		})
		batch.Total += len(matches)
	}

	return batch, nil
}

func sortMatches(matches []*types.Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Location.Offset.Start != b.Location.Offset.Start {
			return a.Location.Offset.Start < b.Location.Offset.Start
		}
		if a.PresetID != b.PresetID {
			return a.PresetID < b.PresetID
		}
		return a.Location.Offset.End < b.Location.Offset.End
	})
}
