// Package ids keeps the persisted path -> integer identifier table.
// Identifiers only ever grow; an assigned identifier is never reused or
// renumbered, since downstream data refers to them across exports.
package ids

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goopsie/lotusExtract/atomicfile"
)

var ErrEmptyPath = errors.New("ids: empty path")

type Table struct {
	mu    sync.Mutex
	ids   map[string]int64
	max   int64
	added int
}

func New() *Table {
	return &Table{ids: make(map[string]int64)}
}

// Load reads a table saved by Save. A missing file is an empty table.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading id table: %w", err)
	}

	t := New()
	if len(bytes.TrimSpace(b)) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(b, &t.ids); err != nil {
		return nil, fmt.Errorf("parsing id table %s: %w", path, err)
	}
	for _, id := range t.ids {
		if id > t.max {
			t.max = id
		}
	}
	return t, nil
}

// Assign returns the path's identifier, allocating max+1 if it has none.
func (t *Table) Assign(path string) (int64, error) {
	if path == "" {
		return 0, ErrEmptyPath
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.ids[path]; ok {
		return id, nil
	}
	t.max++
	t.ids[path] = t.max
	t.added++
	return t.max, nil
}

func (t *Table) Lookup(path string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.ids[path]
	return id, ok
}

func (t *Table) Max() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Added counts identifiers allocated since the table was loaded.
func (t *Table) Added() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.added
}

// Save writes the table as tab-indented JSON with sorted keys. A crash
// leaves either the old table or the new one.
func (t *Table) Save(path string) error {
	t.mu.Lock()
	b, err := json.MarshalIndent(t.ids, "", "\t")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	b = append(b, '\n')

	err = atomicfile.Write(path, 0644, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving id table: %w", err)
	}
	return nil
}
