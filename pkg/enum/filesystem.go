package enum

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator yields text files under a root path.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate collects eligible paths with a sequential walk, then reads the
// files in parallel. Binary files, oversize files, hidden entries and paths
// listed in the root's .gitignore are skipped. A root that is itself a file
// is always read.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback func(item scanner.ContentItem) error) error {
	info, err := os.Stat(e.config.Root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return e.processFile(ctx, e.config.Root, callback)
	}

	files, err := e.walk(ctx)
	if err != nil {
		return err
	}

	numReaders := e.config.Readers
	if numReaders < 1 {
		numReaders = runtime.NumCPU()
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan string, numReaders*2)

	g.Go(func() error {
		defer close(pathsCh)
		for _, path := range files {
			select {
			case pathsCh <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for path := range pathsCh {
				if err := e.processFile(ctx, path, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Every reader may finish before noticing a cancelled parent.
	return origCtx.Err()
}

func (e *FilesystemEnumerator) walk(ctx context.Context) ([]string, error) {
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(e.config.Root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []string
	err := filepath.WalkDir(e.config.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != e.config.Root && !e.config.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if ignore != nil && path != e.config.Root {
			relPath, err := filepath.Rel(e.config.Root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(relPath) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if e.config.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > e.config.MaxFileSize {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

func (e *FilesystemEnumerator) processFile(ctx context.Context, path string, callback func(item scanner.ContentItem) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if isBinary(content) {
		return nil
	}

	return callback(scanner.ContentItem{
		Source:  path,
		Content: string(content),
		Metadata: map[string]string{
			"size": strconv.Itoa(len(content)),
		},
	})
}

// isHidden reports whether a name starts with "." ("." and ".." excepted).
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary looks for a NUL byte in the first 8KB.
func isBinary(content []byte) bool {
	checkSize := min(len(content), 8192)
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
