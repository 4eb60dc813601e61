// Package loads provides the read-only collection of posted loads the matching
// engine scores against.
package loads

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"carriercheck/internal/domain"
)

// Source lists every available load. Implementations never fail: an
// unavailable source is an empty one.
type Source interface {
	List(ctx context.Context) []domain.Load
}

// FileSource reads a JSON array or YAML list of loads once and serves the
// memoized slice for the life of the process.
type FileSource struct {
	path   string
	logger *slog.Logger

	once  sync.Once
	loads []domain.Load
}

// Option configures a FileSource.
type Option func(*FileSource)

func WithLogger(logger *slog.Logger) Option {
	return func(s *FileSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileSource returns a source backed by path. The file is not read until
// the first List call.
func NewFileSource(path string, opts ...Option) *FileSource {
	s := &FileSource{
		path:   path,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the loaded collection. Callers must not mutate the result.
func (s *FileSource) List(ctx context.Context) []domain.Load {
	s.once.Do(func() {
		loads, err := readFile(s.path)
		if err != nil {
			s.logger.WarnContext(ctx, "load source unavailable, serving no loads",
				"path", s.path,
				"error", err,
			)
			return
		}
		s.loads = loads
		s.logger.InfoContext(ctx, "load source ready",
			"path", s.path,
			"count", len(loads),
		)
	})
	return s.loads
}

func readFile(path string) ([]domain.Load, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loads file: %w", err)
	}

	var loads []domain.Load
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loads)
	default:
		err = json.Unmarshal(data, &loads)
	}
	if err != nil {
		return nil, fmt.Errorf("decode loads file: %w", err)
	}
	return loads, nil
}

// StaticSource serves a fixed slice.
type StaticSource []domain.Load

func (s StaticSource) List(context.Context) []domain.Load {
	return s
}
