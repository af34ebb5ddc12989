package extractor

import (
	"sort"

	"github.com/goopsie/lotusExtract/pkgText"
)

// Root is a path to extract, with the codex tag that selected it.
type Root struct {
	Path string
	Tag  string
}

// Record is one extracted package.
type Record struct {
	Path    string
	ID      int64
	Data    *pkgText.Map // empty for stubs
	Parent  string
	Texture string
	Tag     string

	stub bool
}

// Stub reports whether the path had no package in the container.
func (r *Record) Stub() bool { return r.stub }

// Interface is the record as plain values, optional fields omitted when empty.
func (r *Record) Interface() map[string]any {
	out := map[string]any{
		"path": r.Path,
		"id":   r.ID,
		"data": r.Data.Interface(),
	}
	if r.Parent != "" {
		out["parent"] = r.Parent
	}
	if r.Texture != "" {
		out["texture"] = r.Texture
	}
	if r.Tag != "" {
		out["tag"] = r.Tag
	}
	return out
}

// Result is the output of one closure: every record reached, keyed by
// path, plus the normalized targets seen in each reference field.
// Record order carries no meaning.
type Result struct {
	Records map[string]*Record

	refs map[string]map[string]struct{}
}

func newResult() *Result {
	return &Result{
		Records: make(map[string]*Record),
		refs:    make(map[string]map[string]struct{}),
	}
}

func (r *Result) addRef(field, target string) {
	set, ok := r.refs[field]
	if !ok {
		set = make(map[string]struct{})
		r.refs[field] = set
	}
	set[target] = struct{}{}
}

// References returns the sorted targets recorded for a reference field.
func (r *Result) References(field string) []string {
	out := make([]string, 0, len(r.refs[field]))
	for p := range r.refs[field] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *Result) Stubs() []string {
	var out []string
	for p, rec := range r.Records {
		if rec.stub {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Result) Interface() map[string]any {
	out := make(map[string]any, len(r.Records))
	for p, rec := range r.Records {
		out[p] = rec.Interface()
	}
	return out
}

// resolution is the outcome of looking a path up: content, or missing.
type resolution struct {
	content *pkgText.Map
	missing bool
}
