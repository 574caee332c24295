// Package serve exposes a scanner and the matching operations over a
// newline-delimited JSON protocol on a reader/writer pair.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"go.uber.org/zap"
)

// Version is the protocol version reported in the ready message.
const Version = "1.0.0"

type opFunc func(s strategy.Strategy, p OpPayload) (any, error)

var ops = map[string]opFunc{
	"matches_all": func(s strategy.Strategy, p OpPayload) (any, error) { return s.MatchesAllOf(p.Text) },
	"matches_any": func(s strategy.Strategy, p OpPayload) (any, error) { return s.MatchesAnyOf(p.Text) },
	"first": func(s strategy.Strategy, p OpPayload) (any, error) {
		m, ok, err := s.FirstMatch(p.Text, p.Group)
		if err != nil || !ok {
			return nil, err
		}
		return m, nil
	},
	"all":     func(s strategy.Strategy, p OpPayload) (any, error) { return s.AllMatches(p.Text, p.Group) },
	"remove":  func(s strategy.Strategy, p OpPayload) (any, error) { return s.RemoveAllMatches(p.Text) },
	"replace": func(s strategy.Strategy, p OpPayload) (any, error) { return s.ReplaceAllMatches(p.Text, p.Template) },
	"index":   func(s strategy.Strategy, p OpPayload) (any, error) { return s.FirstIndexOf(p.Text, p.Start) },
	"indices": func(s strategy.Strategy, p OpPayload) (any, error) { return s.AllIndicesOf(p.Text, p.Start) },
	"count":   func(s strategy.Strategy, p OpPayload) (any, error) { return s.CountMatches(p.Text, p.Start) },
}

// OpNames returns the supported op names, sorted.
func OpNames() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStrategyOptions sets the options used to build "op" strategies.
func WithStrategyOptions(opts ...strategy.Option) Option {
	return func(s *Server) {
		s.strategyOpts = opts
	}
}

// Server answers requests read from in, one response line per request.
type Server struct {
	scanner      *scanner.Scanner
	logger       *zap.Logger
	strategyOpts []strategy.Option
	encoder      *json.Encoder
	decoder      *json.Decoder
}

// NewServer creates a server over sc.
func NewServer(sc *scanner.Scanner, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		scanner: sc,
		logger:  zap.NewNop(),
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sends the ready message and serves requests until in is exhausted,
// a "close" request arrives or ctx is cancelled. Requests decoded before
// end of input are always answered.
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles one request and reports whether to stop.
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	s.logger.Debug("request", zap.String("type", req.Type))

	switch req.Type {
	case "scan":
		s.handleScan(ctx, req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "op":
		s.handleOp(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	ids := make([]string, 0, len(s.scanner.Presets()))
	for _, p := range s.scanner.Presets() {
		ids = append(ids, p.ID)
	}
	s.send("ready", ReadyData{Version: Version, Presets: ids, Ops: OpNames()})
}

func (s *Server) handleScan(ctx context.Context, payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}

	matches, err := s.scanner.ScanContext(ctx, p.Content)
	if err != nil {
		s.sendError("scan", err.Error())
		return
	}
	s.send("scan", scanner.ScanResult{Source: p.Source, Matches: matches})
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}

	result, err := s.scanner.ScanBatch(p.Items)
	if err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}
	s.send("scan_batch", result)
}

func (s *Server) handleOp(payload json.RawMessage) {
	var p OpPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("op", err.Error())
		return
	}

	run, ok := ops[p.Op]
	if !ok {
		s.sendError("op", "unknown op: "+p.Op)
		return
	}

	strat, err := s.resolve(p)
	if err != nil {
		s.sendError("op", err.Error())
		return
	}

	value, err := run(strat, p)
	if err != nil {
		s.sendError("op", err.Error())
		return
	}
	s.send("op", OpResult{Op: p.Op, Value: value})
}

func (s *Server) resolve(p OpPayload) (strategy.Strategy, error) {
	switch {
	case p.Pattern != "" && p.Preset != "":
		return strategy.Strategy{}, fmt.Errorf("pattern and preset are mutually exclusive")
	case p.Preset != "":
		found, ok := preset.Find(s.scanner.Presets(), p.Preset)
		if !ok {
			return strategy.Strategy{}, fmt.Errorf("unknown preset %q", p.Preset)
		}
		return preset.Strategy(found, s.strategyOpts...)
	case p.Pattern != "":
		return strategy.FromPattern(p.Pattern, s.strategyOpts...)
	default:
		return strategy.Strategy{}, fmt.Errorf("missing pattern or preset")
	}
}

func (s *Server) send(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	if err := s.encoder.Encode(Response{Success: true, Type: respType, Data: data}); err != nil {
		s.logger.Warn("write failed", zap.Error(err))
	}
}

func (s *Server) sendError(reqType, msg string) {
	s.logger.Debug("request failed", zap.String("type", reqType), zap.String("error", msg))
	if err := s.encoder.Encode(Response{Success: false, Type: reqType, Error: msg}); err != nil {
		s.logger.Warn("write failed", zap.Error(err))
	}
}
