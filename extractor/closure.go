// Package extractor materializes the closed set of packages reachable
// from a set of roots, normalizing each one on the way.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/goopsie/lotusExtract/ids"
	"github.com/goopsie/lotusExtract/lotusPackages"
	"github.com/goopsie/lotusExtract/manifests"
	"github.com/goopsie/lotusExtract/pkgText"
)

type Resolver struct {
	store    *lotusPackages.Store
	ids      *ids.Table
	textures manifests.TextureManifest
	cfg      NormalizeConfig
	logger   *slog.Logger

	// Filter drops resolved roots before they are emitted. Nil keeps all.
	Filter func(root Root, content *pkgText.Map) bool
}

func New(store *lotusPackages.Store, table *ids.Table, textures manifests.TextureManifest, cfg NormalizeConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		ids:      table,
		textures: textures,
		cfg:      cfg,
		logger:   logger,
	}
}

// lookup resolves a path; a missing package is a result, not an error.
func (r *Resolver) lookup(path string) (resolution, error) {
	content, err := r.store.Resolve(path)
	if errors.Is(err, lotusPackages.ErrNotFound) {
		return resolution{missing: true}, nil
	}
	if err != nil {
		return resolution{}, err
	}
	return resolution{content: content}, nil
}

// ExtractClosure emits every record reachable from roots. Paths with no
// package become stubs; only decode and cycle errors fail the run.
func (r *Resolver) ExtractClosure(roots []Root) (*Result, error) {
	c := r.newClosure(newResult())
	for _, root := range roots {
		if err := c.visitRoot(root); err != nil {
			return nil, err
		}
	}
	if err := c.run(); err != nil {
		return nil, err
	}
	r.logger.Debug("closure done", "roots", len(roots), "records", len(c.result.Records), "stubs", len(c.result.Stubs()))
	return c.result, nil
}

// ExtendClosure continues a finished closure from more paths. Records
// already in result are not visited again.
func (r *Resolver) ExtendClosure(result *Result, paths []string) error {
	c := r.newClosure(result)
	for p := range result.Records {
		c.visited[p] = true
	}
	for _, p := range paths {
		c.enqueue(p)
	}
	return c.run()
}

// closure is the state of one run. Nothing outside it touches visited
// or frontier.
type closure struct {
	r        *Resolver
	result   *Result
	visited  map[string]bool
	queued   map[string]bool
	frontier []string
}

func (r *Resolver) newClosure(result *Result) *closure {
	return &closure{
		r:       r,
		result:  result,
		visited: make(map[string]bool),
		queued:  make(map[string]bool),
	}
}

func (c *closure) enqueue(path string) {
	if path == "" || c.visited[path] || c.queued[path] {
		return
	}
	c.queued[path] = true
	c.frontier = append(c.frontier, path)
}

// run drains the frontier until a pass discovers nothing new.
func (c *closure) run() error {
	for len(c.frontier) > 0 {
		batch := c.frontier
		c.frontier = nil
		sort.Strings(batch)
		for _, p := range batch {
			delete(c.queued, p)
			if c.visited[p] {
				continue
			}
			res, err := c.r.lookup(p)
			if err != nil {
				return err
			}
			if err := c.emit(p, "", res); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *closure) visitRoot(root Root) error {
	if c.visited[root.Path] {
		if rec, ok := c.result.Records[root.Path]; ok && rec.Tag == "" {
			rec.Tag = root.Tag
		}
		return nil
	}
	res, err := c.r.lookup(root.Path)
	if err != nil {
		return err
	}
	if !res.missing && c.r.Filter != nil && !c.r.Filter(root, res.content) {
		c.r.logger.Debug("root filtered", "path", root.Path, "tag", root.Tag)
		return nil
	}
	return c.emit(root.Path, root.Tag, res)
}

func (c *closure) emit(path, tag string, res resolution) error {
	c.visited[path] = true
	id, err := c.r.ids.Assign(path)
	if err != nil {
		return fmt.Errorf("assigning id for %q: %w", path, err)
	}

	rec := &Record{Path: path, ID: id, Tag: tag}
	if res.missing {
		c.r.logger.Warn("cannot find package", "path", path)
		rec.Data = pkgText.NewMap()
		rec.stub = true
		c.result.Records[path] = rec
		return nil
	}

	rec.Data = res.content
	if err := c.normalize(rec); err != nil {
		return fmt.Errorf("normalizing %s: %w", path, err)
	}
	c.result.Records[path] = rec
	return nil
}
