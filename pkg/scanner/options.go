package scanner

import (
	"github.com/praetorian-inc/patternkit/pkg/engine"
	"go.uber.org/zap"
)

// DefaultSnippetContext is the number of characters kept on each side of a
// match in its snippet.
const DefaultSnippetContext = 40

type config struct {
	engine         engine.Engine
	logger         *zap.Logger
	tolerant       bool
	snippetContext int
	workers        int
}

func defaultConfig() config {
	return config{
		engine:         engine.Default(),
		logger:         zap.NewNop(),
		snippetContext: DefaultSnippetContext,
		workers:        1,
	}
}

// Option configures a Scanner.
type Option func(*config)

// WithEngine compiles every preset with e.
func WithEngine(e engine.Engine) Option {
	return func(c *config) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithLogger sets the logger for skipped presets and scan diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTolerant logs and skips presets that fail to compile or search
// instead of failing the whole scan.
func WithTolerant(tolerant bool) Option {
	return func(c *config) {
		c.tolerant = tolerant
	}
}

// WithSnippetContext sets how many characters of surrounding line are kept
// on each side of a match.
func WithSnippetContext(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.snippetContext = n
		}
	}
}

// WithWorkers sets how many presets are searched concurrently.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}
