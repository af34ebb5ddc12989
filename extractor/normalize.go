package extractor

import (
	"strings"

	"github.com/goopsie/lotusExtract/lotusPackages"
	"github.com/goopsie/lotusExtract/pkgText"
)

// RefField describes a field holding references to other packages.
type RefField struct {
	Field string `yaml:"field"`
	List  bool   `yaml:"list"`
	// Follow pulls targets into the same closure.
	Follow bool `yaml:"follow"`
	// Values starting with SkipPrefix are left alone and not recorded.
	SkipPrefix string            `yaml:"skip_prefix"`
	Aliases    map[string]string `yaml:"aliases"`
}

type NormalizeConfig struct {
	Denylist []string `yaml:"denylist"`

	// TagFields starting with TagPrefix are root relative ("Lotus/...").
	TagPrefix string   `yaml:"tag_prefix"`
	TagFields []string `yaml:"tag_fields"`

	References []RefField `yaml:"references"`

	BehaviorsField         string   `yaml:"behaviors_field"`
	BehaviorReferences     []string `yaml:"behavior_references"`
	IconField              string   `yaml:"icon_field"`
	CategoryField          string   `yaml:"category_field"`
	SpecialCategory        string   `yaml:"special_category"`
	SpecialCategoryTag     string   `yaml:"special_category_tag"`
	ExaltedItemsField      string   `yaml:"exalted_items_field"`
	ModSetField            string   `yaml:"mod_set_field"`
	ItemCompatibilityField string   `yaml:"item_compatibility_field"`
}

func DefaultNormalizeConfig() NormalizeConfig {
	return NormalizeConfig{
		Denylist:  append([]string(nil), defaultDenylist...),
		TagPrefix: "Lotus/",
		TagFields: []string{"LocTag"},
		References: []RefField{
			{
				Field: "ItemCompatibility",
				Aliases: map[string]string{
					"PowerSuits/PlayerPowerSuit": "/Lotus/Types/Game/PowerSuits/PlayerPowerSuit",
				},
			},
			{Field: "AdditionalItems", List: true, Follow: true, SkipPrefix: "/Lotus"},
			{Field: "ModSet"},
		},
		BehaviorsField:         "Behaviors",
		BehaviorReferences:     []string{"projectileType", "AIMED_ACCURACY"},
		IconField:              "IconTexture",
		CategoryField:          "ProductCategory",
		SpecialCategory:        "SpecialItems",
		SpecialCategoryTag:     "ExaltedItems",
		ExaltedItemsField:      "AdditionalItems",
		ModSetField:            "ModSet",
		ItemCompatibilityField: "ItemCompatibility",
	}
}

// fields nobody downstream reads
var defaultDenylist = []string{
	"AimStartSound",
	"AimStopSound",
	"AttachedFX",
	"CastSounds",
	"ChannelingKillScript",
	"CustomHudMovie",
	"DarkSectorAttachmentsToCreate",
	"DarkSectorAuxiliaryAttachments",
	"DarkSectorCustomAltFireAnimation",
	"DarkSectorCustomAltFireReloadAnimation",
	"DarkSectorHolsterPosOffset",
	"DarkSectorHolsterRotOffset",
	"DarkSectorStateAnimations",
	"DefaultAnimControllerOverride",
	"DefaultCustomization",
	"DisabledScript",
	"DM_AIM",
	"DropSound",
	"EnabledScript",
	"EXTRA1",
	"EXTRA2",
	"FireModes",
	"GripPositionOffset",
	"GripRotationOffset",
	"HeavySlamStartSound",
	"HitHeadSound",
	"HitSound",
	"HolsterBone1Name",
	"HolsterBone1Position",
	"HolsterBone1Rotation",
	"HolsterPosOffset",
	"Links",
	"MAIN_HAND",
	"Mesh",
	"OFF_HAND",
	"OnRemovedScript",
	"OwnerSetScript",
	"ParryActivatedSound",
	"ParryComboStartSound",
	"ParryDeactivatedSound",
	"PickUpMesh",
	"PvpSlams",
	"QuickSlamStartSound",
	"ScanLocalSoundEffect",
	"ScanOnKillScript",
	"SimCollision",
	"Slams",
	"SoundEvents",
	"SpecialEventInfectedScript",
	"StateAnimations",
	"THIRD_PERSON_ATTACHMENT",
	"WeaponHandAimOffset",
	"ZoomLevels",
}

// MakeAbsolute resolves ref against the directory of base. Absolute
// refs are returned unchanged. Like lotusPackages.JoinPath, nothing is
// cleaned: "../X" stays in the result, since package paths are matched
// byte for byte.
func MakeAbsolute(ref, base string) string {
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return lotusPackages.JoinPath(dirname(base), ref)
}

// dirname is everything before the last '/', trailing slashes trimmed
// unless only slashes remain.
func dirname(p string) string {
	dir := p[:strings.LastIndex(p, "/")+1]
	if trimmed := strings.TrimRight(dir, "/"); trimmed != "" {
		return trimmed
	}
	return dir
}

// normalize rewrites rec.Data in place and enqueues what it references.
func (c *closure) normalize(rec *Record) error {
	cfg := &c.r.cfg

	if raw, ok := c.r.store.Lookup(rec.Path); ok && raw.ParentPath != "" {
		rec.Parent = raw.ParentPath
		c.enqueue(raw.ParentPath)
	}

	if loc := c.r.textures[rec.Path]; loc != "" && loc != rec.Data.GetString(cfg.IconField) {
		rec.Texture = loc
	}

	if err := c.inlineBehaviors(rec); err != nil {
		return err
	}

	for _, k := range cfg.Denylist {
		rec.Data.Delete(k)
	}

	c.absolutizeTags(rec.Data)

	for i := range cfg.References {
		c.normalizeRefField(rec, &cfg.References[i])
	}
	return nil
}

// inlineBehaviors replaces reference fields inside behaviors with the
// content they point at. Missing targets keep their absolute path.
func (c *closure) inlineBehaviors(rec *Record) error {
	cfg := &c.r.cfg
	v, ok := rec.Data.Get(cfg.BehaviorsField)
	if !ok {
		return nil
	}
	behaviors, ok := v.AsList()
	if !ok {
		return nil
	}
	for _, b := range behaviors {
		behavior, ok := b.AsMap()
		if !ok {
			continue
		}
		for _, k := range behavior.Keys() {
			inner, _ := behavior.Get(k)
			fields, ok := inner.AsMap()
			if !ok {
				continue
			}
			for _, refKey := range cfg.BehaviorReferences {
				ref, ok := fields.Get(refKey)
				if !ok {
					continue
				}
				target, ok := ref.Str()
				if !ok {
					continue
				}
				if target == "" {
					fields.Set(refKey, pkgText.MapValue(pkgText.NewMap()))
					continue
				}
				abs := MakeAbsolute(target, rec.Path)
				res, err := c.r.lookup(abs)
				if err != nil {
					return err
				}
				if res.missing {
					fields.Set(refKey, pkgText.String(abs))
				} else {
					fields.Set(refKey, pkgText.MapValue(res.content))
				}
				c.enqueue(abs)
			}
		}
	}
	return nil
}

// absolutizeTags prefixes root relative tag strings with '/', at the
// top level and inside maps held by top level lists.
func (c *closure) absolutizeTags(data *pkgText.Map) {
	cfg := &c.r.cfg
	if cfg.TagPrefix == "" {
		return
	}
	fix := func(m *pkgText.Map) {
		for _, f := range cfg.TagFields {
			if s := m.GetString(f); strings.HasPrefix(s, cfg.TagPrefix) {
				m.Set(f, pkgText.String("/"+s))
			}
		}
	}
	fix(data)
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		items, ok := v.AsList()
		if !ok {
			continue
		}
		for _, item := range items {
			if m, ok := item.AsMap(); ok {
				fix(m)
			}
		}
	}
}

func (c *closure) normalizeRefField(rec *Record, f *RefField) {
	v, ok := rec.Data.Get(f.Field)
	if !ok {
		return
	}
	if !f.List {
		s, ok := v.Str()
		if !ok {
			return
		}
		if abs, ok := c.reference(rec.Path, s, f); ok {
			rec.Data.Set(f.Field, pkgText.String(abs))
		}
		return
	}
	items, ok := v.AsList()
	if !ok {
		return
	}
	for i, item := range items {
		s, ok := item.Str()
		if !ok {
			continue
		}
		if abs, ok := c.reference(rec.Path, s, f); ok {
			items[i] = pkgText.String(abs)
		}
	}
}

// reference normalizes one value; ok is false when it was left alone.
func (c *closure) reference(current, value string, f *RefField) (string, bool) {
	if value == "" {
		return "", false
	}
	abs, aliased := f.Aliases[value]
	if !aliased {
		if f.SkipPrefix != "" && strings.HasPrefix(value, f.SkipPrefix) {
			return "", false
		}
		abs = MakeAbsolute(value, current)
	}
	c.result.addRef(f.Field, abs)
	if f.Follow {
		c.enqueue(abs)
	}
	return abs, true
}
