package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goopsie/lotusExtract/lotusPackages"
	"github.com/goopsie/lotusExtract/manifests"
	"github.com/goopsie/lotusExtract/pkgText"
)

var (
	DefaultModTags  = []string{"Mod", "RelicsAndArcanes"}
	DefaultItemTags = []string{"Sentinel", "SentinelWeapon", "Warframe", "Weapon"}
)

// Document is everything one export run produces.
type Document struct {
	Mods    *Result
	Items   *Result
	ModSets map[string]*pkgText.Map
}

func (d *Document) Interface() map[string]any {
	modSets := make(map[string]any, len(d.ModSets))
	for p, m := range d.ModSets {
		modSets[p] = m.Interface()
	}
	return map[string]any{
		"Mods":    d.Mods.Interface(),
		"Items":   d.Items.Interface(),
		"ModSets": modSets,
	}
}

// SkipRelics is a root filter dropping relics and projections, which the
// codex files under RelicsAndArcanes next to arcanes.
func SkipRelics(root Root, content *pkgText.Map) bool {
	if root.Tag != "RelicsAndArcanes" {
		return true
	}
	if _, ok := content.Get("UpgradeResults"); ok {
		return false
	}
	return !strings.HasPrefix(root.Path, "/Lotus/Types/Game/Projections/")
}

// Roots turns codex entries into closure roots.
func Roots(entries []manifests.CodexEntry) []Root {
	roots := make([]Root, 0, len(entries))
	for _, e := range entries {
		roots = append(roots, Root{Path: e.Type, Tag: e.Tag})
	}
	return roots
}

// ExtractAll runs the mod and item closures, pulls in items that mods
// declare compatibility with, fixes exalted item categories and
// resolves mod sets.
func (r *Resolver) ExtractAll(index *manifests.CodexIndex, modTags, itemTags []string) (*Document, error) {
	r.logger.Info("extracting", "tags", modTags)
	mods, err := r.ExtractClosure(Roots(index.Select(modTags...)))
	if err != nil {
		return nil, fmt.Errorf("extracting mods: %w", err)
	}

	r.logger.Info("extracting", "tags", itemTags)
	items, err := r.ExtractClosure(Roots(index.Select(itemTags...)))
	if err != nil {
		return nil, fmt.Errorf("extracting items: %w", err)
	}

	// compatibility crosses results, so it is resolved after both exist
	var compat []string
	for _, p := range mods.References(r.cfg.ItemCompatibilityField) {
		_, inMods := mods.Records[p]
		_, inItems := items.Records[p]
		if !inMods && !inItems {
			compat = append(compat, p)
		}
	}
	r.logger.Info("processing item compatibility orphans", "count", len(compat))
	if err := r.ExtendClosure(items, compat); err != nil {
		return nil, fmt.Errorf("extracting compatible items: %w", err)
	}

	for _, p := range items.References(r.cfg.ExaltedItemsField) {
		rec, ok := items.Records[p]
		if !ok || rec.Stub() {
			continue
		}
		if err := r.BackfillCategory(rec); err != nil {
			return nil, err
		}
	}

	doc := &Document{
		Mods:    mods,
		Items:   items,
		ModSets: make(map[string]*pkgText.Map),
	}
	for _, p := range references(r.cfg.ModSetField, mods, items) {
		res, err := r.lookup(p)
		if err != nil {
			return nil, fmt.Errorf("resolving mod set %s: %w", p, err)
		}
		if res.missing {
			r.logger.Warn("cannot find mod set", "path", p)
			doc.ModSets[p] = pkgText.NewMap()
			continue
		}
		doc.ModSets[p] = res.content
	}
	return doc, nil
}

// references merges the targets each result recorded for field.
func references(field string, results ...*Result) []string {
	seen := make(map[string]bool)
	var out []string
	for _, res := range results {
		for _, p := range res.References(field) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// BackfillCategory gives a special-category record the first different
// category found up its raw parent chain, and retags it.
func (r *Resolver) BackfillCategory(rec *Record) error {
	cfg := &r.cfg
	if rec.Data.GetString(cfg.CategoryField) != cfg.SpecialCategory {
		return nil
	}
	rec.Tag = cfg.SpecialCategoryTag

	obj, ok := r.store.Lookup(rec.Path)
	if !ok {
		return nil
	}
	seen := map[string]bool{obj.Path: true}
	for obj.ParentPath != "" {
		if seen[obj.ParentPath] {
			return fmt.Errorf("%w: %s reaches %s again", lotusPackages.ErrCycleDetected, rec.Path, obj.ParentPath)
		}
		parent, ok := r.store.Lookup(obj.ParentPath)
		if !ok {
			return nil
		}
		seen[parent.Path] = true
		obj = parent

		content, err := r.store.Resolve(obj.Path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", obj.Path, err)
		}
		if category := content.GetString(cfg.CategoryField); category != "" && category != cfg.SpecialCategory {
			rec.Data.Set(cfg.CategoryField, pkgText.String(category))
			return nil
		}
	}
	return nil
}
