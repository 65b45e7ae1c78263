package knowledge

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Source is one knowledge file split into passages, ready for ingestion.
type Source struct {
	// ID is the file name without extension, used as the passage id prefix.
	ID string

	// Tags are topic labels derived from the file name.
	Tags []string

	// Chunks are the passages extracted from the file, in document order.
	Chunks []string
}

// Loader walks a knowledge directory and turns its files into Sources.
type Loader struct {
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewLoader(chunkSize, chunkOverlap int, logger *zap.Logger) *Loader {
	return &Loader{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// LoadDir extracts and chunks every supported file under dir. Unreadable or
// unsupported files are logged and skipped; the rest of the directory still
// loads.
func (l *Loader) LoadDir(dir string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		src, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping knowledge file",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		sources = append(sources, src)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking knowledge dir %s: %w", dir, err)
	}

	l.logger.Info("knowledge directory loaded",
		zap.String("dir", dir),
		zap.Int("sources", len(sources)),
	)

	return sources, nil
}

func (l *Loader) loadFile(path string) (Source, error) {
	text, err := ExtractText(path)
	if err != nil {
		return Source{}, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Source{
		ID:     base,
		Tags:   TagsFromName(base),
		Chunks: Chunk(text, l.chunkSize, l.chunkOverlap),
	}, nil
}

// TagsFromName derives topic tags from a file name: lower-cased tokens
// split on separators, e.g. "Golang_Concurrency-Notes" tags golang,
// concurrency, notes.
func TagsFromName(name string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	tags := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}
