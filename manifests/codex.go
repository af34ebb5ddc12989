package manifests

import (
	"github.com/goopsie/lotusExtract/pkgText"
)

// CodexIndexPath is the record listing every codex entry and its tag.
const CodexIndexPath = "/Lotus/Types/Lore/PrimaryCodexManifest"

type CodexEntry struct {
	Tag  string
	Type string
}

// CodexIndex picks extraction roots by tag.
type CodexIndex struct {
	Entries []CodexEntry
}

// NewCodexIndex reads Entries then AutoGeneratedEntries from the
// resolved index record. Entries without a tag or type are skipped.
func NewCodexIndex(content *pkgText.Map) *CodexIndex {
	idx := &CodexIndex{}
	for _, field := range []string{"Entries", "AutoGeneratedEntries"} {
		v, ok := content.Get(field)
		if !ok {
			continue
		}
		items, ok := v.AsList()
		if !ok {
			continue
		}
		for _, item := range items {
			entry, ok := item.AsMap()
			if !ok {
				continue
			}
			tag, typ := entry.GetString("tag"), entry.GetString("type")
			if tag == "" || typ == "" {
				continue
			}
			idx.Entries = append(idx.Entries, CodexEntry{Tag: tag, Type: typ})
		}
	}
	return idx
}

// Select returns entries whose tag is one of tags, in index order.
func (idx *CodexIndex) Select(tags ...string) []CodexEntry {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []CodexEntry
	for _, e := range idx.Entries {
		if want[e.Tag] {
			out = append(out, e)
		}
	}
	return out
}
