// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import "github.com/woozymasta/pathrules"

// Key is a resource key: a (type, group, instance) triple. Equality is
// component-wise; ordering is lexicographic.
type Key struct {
	Type     uint32
	Group    uint32
	Instance uint32
}

// Less orders keys lexicographically by (Type, Group, Instance).
func (k Key) Less(other Key) bool {
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	if k.Group != other.Group {
		return k.Group < other.Group
	}
	return k.Instance < other.Instance
}

// Mask is a partial key: each component is optional. A mask matches a key
// iff every present component equals its counterpart.
type Mask struct {
	Type     *uint32
	Group    *uint32
	Instance *uint32
}

// Matches reports whether every present component of the mask equals its
// counterpart in key.
func (m Mask) Matches(key Key) bool {
	if m.Type != nil && *m.Type != key.Type {
		return false
	}
	if m.Group != nil && *m.Group != key.Group {
		return false
	}
	if m.Instance != nil && *m.Instance != key.Instance {
		return false
	}
	return true
}

func u32(v uint32) *uint32 { return &v }

// DirectoryKey is the fixed key of the directory entry listing
// QFS-compressed entries' decompressed sizes (spec.md §6).
var DirectoryKey = Key{Type: 0xE86B1EEF, Group: 0xE86B1EEF, Instance: 0x286B1F03}

// RUL0Key is the fixed key of the intersection-ordering rule script
// (spec.md §6).
var RUL0Key = Key{Type: 0x0A5BCF4B, Group: 0xAA5BCF57, Instance: 0x10000000}

type tgiLabel struct {
	mask  Mask
	label string
}

// tgiCatalog is the full resource-type catalog, ported verbatim from
// _examples/original_source/src/TGI.cpp's kTgiCatalog (spec.md §4.4 names
// only a representative subset; SPEC_FULL.md §SUPPLEMENTED FEATURES keeps
// the complete table since "more specific masks must precede less
// specific ones" is only meaningful against it). More specific masks are
// listed before less specific ones sharing the same type.
var tgiCatalog = []tgiLabel{
	{Mask{u32(0), u32(0), u32(0)}, "-"},
	{Mask{u32(0xe86b1eef), u32(0xe86b1eef), u32(0x286b1f03)}, "Directory"},
	{Mask{u32(0x6be74c60), u32(0x6be74c60), nil}, "LD"},
	{Mask{u32(0x5ad0e817), u32(0xbadb57f1), nil}, "S3D (Maxis)"},
	{Mask{u32(0x5ad0e817), nil, nil}, "S3D"},
	{Mask{u32(0x05342861), nil, nil}, "Cohort"},
	{Mask{u32(0x6534284a), u32(0x2821ed93), nil}, "Exemplar (Road)"},
	{Mask{u32(0x6534284a), u32(0xa92a02ea), nil}, "Exemplar (Street)"},
	{Mask{u32(0x6534284a), u32(0xcbe084cb), nil}, "Exemplar (One-Way Road)"},
	{Mask{u32(0x6534284a), u32(0xcb730fac), nil}, "Exemplar (Avenue)"},
	{Mask{u32(0x6534284a), u32(0xa8434037), nil}, "Exemplar (Highway)"},
	{Mask{u32(0x6534284a), u32(0xebe084d1), nil}, "Exemplar (Ground Highway)"},
	{Mask{u32(0x6534284a), u32(0x6be08658), nil}, "Exemplar (Dirt Road)"},
	{Mask{u32(0x6534284a), u32(0xe8347989), nil}, "Exemplar (Rail)"},
	{Mask{u32(0x6534284a), u32(0x2b79dffb), nil}, "Exemplar (Light Rail)"},
	{Mask{u32(0x6534284a), u32(0xebe084c2), nil}, "Exemplar (Monorail)"},
	{Mask{u32(0x6534284a), u32(0x8a15f3f2), nil}, "Exemplar (Subway)"},
	{Mask{u32(0x6534284a), u32(0x088e1962), nil}, "Exemplar (Power Pole)"},
	{Mask{u32(0x6534284a), u32(0x89ac5643), nil}, "Exemplar (T21)"},
	{Mask{u32(0x6534284a), nil, nil}, "Exemplar"},
	{Mask{u32(0x7ab50e44), u32(0x1abe787d), nil}, "FSH (Misc)"},
	{Mask{u32(0x7ab50e44), u32(0x0986135e), nil}, "FSH (Base/Overlay Texture)"},
	{Mask{u32(0x7ab50e44), u32(0x2bc2759a), nil}, "FSH (Shadow Mask)"},
	{Mask{u32(0x7ab50e44), u32(0x2a2458f9), nil}, "FSH (Animation Sprites (Props))"},
	{Mask{u32(0x7ab50e44), u32(0x49a593e7), nil}, "FSH (Animation Sprites (Non Props))"},
	{Mask{u32(0x7ab50e44), u32(0x891b0e1a), nil}, "FSH (Terrain/Foundation)"},
	{Mask{u32(0x7ab50e44), u32(0x46a006b0), nil}, "FSH (UI Image)"},
	{Mask{u32(0x7ab50e44), nil, nil}, "FSH"},
	{Mask{u32(0x296678f7), u32(0x69668828), nil}, "SC4Path (2D)"},
	{Mask{u32(0x296678f7), u32(0xa966883f), nil}, "SC4Path (3D)"},
	{Mask{u32(0x296678f7), nil, nil}, "SC4Path"},
	{Mask{u32(0x856ddbac), u32(0x6a386d26), nil}, "PNG (Icon)"},
	{Mask{u32(0x856ddbac), nil, nil}, "PNG"},
	{Mask{u32(0xca63e2a3), u32(0x4a5e8ef6), nil}, "LUA"},
	{Mask{u32(0xca63e2a3), u32(0x4a5e8f3f), nil}, "LUA (Generators)"},
	{Mask{u32(0x2026960b), u32(0xaa4d1933), nil}, "WAV"},
	{Mask{u32(0x2026960b), nil, nil}, "LText"},
	{Mask{u32(0), u32(0x4a87bfe8), u32(0x2a87bffc)}, "INI (Font Table)"},
	{Mask{u32(0), u32(0x8a5971c5), u32(0x8a5993b9)}, "INI (Networks)"},
	{Mask{u32(0), u32(0x8a5971c5), nil}, "INI"},
	{Mask{u32(0x0a5bcf4b), u32(0xaa5bcf57), u32(0x10000000)}, "RUL0 (Intersection Ordering)"},
	{Mask{u32(0xea5118b0), nil, nil}, "EffDir"},
	{Mask{nil, nil, nil}, "Unknown"},
}

// Catalog answers "what is this?" (Describe) and "give me a mask for
// label X" (MaskForLabel) over the static resource-key table. Each Reader
// builds its own Catalog over the shared static table; a Catalog is
// read-only after construction (spec.md §9).
type Catalog struct {
	labelToMask map[string]Mask
	typeBuckets map[uint32][]*tgiLabel
	wildcard    []*tgiLabel
}

// NewCatalog builds the static catalog index: a label→mask map, a
// type→candidates bucket map, and a wildcard bucket for type-less masks,
// mirroring original_source/TGI.cpp's TgiLabelIndex constructor.
func NewCatalog() *Catalog {
	c := &Catalog{
		labelToMask: make(map[string]Mask, len(tgiCatalog)),
		typeBuckets: make(map[uint32][]*tgiLabel),
	}
	for i := range tgiCatalog {
		entry := &tgiCatalog[i]
		c.labelToMask[entry.label] = entry.mask
		if entry.mask.Type != nil {
			c.typeBuckets[*entry.mask.Type] = append(c.typeBuckets[*entry.mask.Type], entry)
		} else {
			c.wildcard = append(c.wildcard, entry)
		}
	}
	return c
}

// Describe returns the domain label for key: the first catalog entry
// (restricted to key.Type's bucket, then the wildcard bucket) whose mask
// matches. Returns "Unknown" if nothing matches.
func (c *Catalog) Describe(key Key) string {
	for _, entry := range c.typeBuckets[key.Type] {
		if entry.mask.Matches(key) {
			return entry.label
		}
	}
	for _, entry := range c.wildcard {
		if entry.mask.Matches(key) {
			return entry.label
		}
	}
	return "Unknown"
}

// MaskForLabel returns the canonical mask for a catalog label, or
// ErrLabelNotFound.
func (c *Catalog) MaskForLabel(label string) (Mask, error) {
	if m, ok := c.labelToMask[label]; ok {
		return m, nil
	}
	return Mask{}, &NotFoundError{Query: "label " + label}
}

// LabelsByGlob returns every distinct catalog label matched by rules,
// reusing the teacher's own `pathrules` dependency for the ad hoc
// label-pattern lookups `cmd/dbpfcat`'s `list --label-glob` flag needs
// (e.g. matching "Exemplar (*Road*)" against every exemplar subtype
// label). This is tooling convenience layered on top of the catalog, not
// part of the core's Describe/MaskForLabel exact-match contract.
func (c *Catalog) LabelsByGlob(rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]string, error) {
	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tgiCatalog))
	var out []string
	for _, entry := range tgiCatalog {
		if seen[entry.label] || !matcher.Included(entry.label, false) {
			continue
		}
		seen[entry.label] = true
		out = append(out, entry.label)
	}
	return out, nil
}
