package lotusPackages

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goopsie/lotusExtract/pkgText"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrNotFound      = errors.New("package not found")
	ErrCycleDetected = errors.New("parent chain cycle")
)

const DefaultCacheSize = 4096

// Store holds the decoded records and merges parent content on demand.
// The record map is read-only once the store is built.
type Store struct {
	records map[string]*RawRecord
	cache   *lru.Cache[string, *pkgText.Map]
}

// NewStore wraps a decoded container. cacheSize <= 0 uses DefaultCacheSize.
func NewStore(c *Container, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *pkgText.Map](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{records: c.Records, cache: cache}, nil
}

func (s *Store) Len() int { return len(s.records) }

func (s *Store) Lookup(path string) (*RawRecord, bool) {
	rec, ok := s.records[path]
	return rec, ok
}

// Paths returns every record path, sorted.
func (s *Store) Paths() []string {
	out := make([]string, 0, len(s.records))
	for p := range s.records {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Content decodes the record's own blob, without inherited fields.
func (s *Store) Content(path string) (*pkgText.Map, error) {
	rec, ok := s.records[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return decodeBlob(rec)
}

// Resolve returns the record's content merged over every ancestor's.
// A parent that is not in the container contributes nothing. The
// returned map belongs to the caller.
func (s *Store) Resolve(path string) (*pkgText.Map, error) {
	m, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return m.DeepClone(), nil
}

func (s *Store) resolve(path string) (*pkgText.Map, error) {
	if m, ok := s.cache.Get(path); ok {
		return m, nil
	}
	rec, ok := s.records[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	// walk up until the root, a missing parent, or a cached ancestor
	chain := []*RawRecord{rec}
	seen := map[string]bool{rec.Path: true}
	var base *pkgText.Map
	for cur := rec; cur.ParentPath != ""; {
		if seen[cur.ParentPath] {
			return nil, fmt.Errorf("%w: %s reaches %s again", ErrCycleDetected, path, cur.ParentPath)
		}
		if m, ok := s.cache.Get(cur.ParentPath); ok {
			base = m
			break
		}
		parent, ok := s.records[cur.ParentPath]
		if !ok {
			break
		}
		seen[parent.Path] = true
		chain = append(chain, parent)
		cur = parent
	}

	merged := pkgText.NewMap()
	if base != nil {
		merged = base.DeepClone()
	}
	for i := len(chain) - 1; i >= 0; i-- {
		own, err := decodeBlob(chain[i])
		if err != nil {
			return nil, err
		}
		merged.Overlay(own)
		s.cache.Add(chain[i].Path, merged.DeepClone())
	}
	return merged, nil
}

func decodeBlob(rec *RawRecord) (*pkgText.Map, error) {
	m, err := pkgText.Decode(string(rec.Blob))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", rec.Path, err)
	}
	return m, nil
}
