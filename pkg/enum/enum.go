// Package enum discovers text inputs for scanning.
package enum

import (
	"context"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
)

// Enumerator yields content items from a source. The callback may be
// invoked from several goroutines at once.
type Enumerator interface {
	Enumerate(ctx context.Context, callback func(item scanner.ContentItem) error) error
}

// Config for enumeration.
type Config struct {
	// Root is a file or the directory to walk.
	Root string

	// IncludeHidden includes hidden files and directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to read (0 = no limit).
	MaxFileSize int64

	// Readers is the number of files read concurrently (0 = one per CPU).
	Readers int
}
