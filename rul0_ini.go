// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// iniV1Source is the concrete RUL0Source backing ParseRUL0 in production:
// an INI tokenizer built on gopkg.in/ini.v1, configured to allow repeated
// keys (CellLayout/ConsLayout rows, CheckType entries, RotationRing/
// AddTypes rings) within a single section.
//
// Known limitation (see DESIGN.md): ini.v1's shadow model replays a
// section's repeated values grouped by key name, not interleaved with
// other keys' occurrences in file order. RUL0 never needs cross-key
// interleaving — only per-key order, which shadows preserve — so a
// source file with more than one rotation ring should give each its own
// repeated `[Ordering]` section header rather than folding multiple
// RotationRing= lines into one section.
type iniV1Source struct {
	opts ini.LoadOptions
}

// NewINIv1Source returns the ini.v1-backed RUL0Source. This is the
// library wired in for spec.md §6's "assume an INI tokenizer exists"
// boundary, grounded on the viper/cobra-era config stack the rest of the
// pack's CLI tooling depends on.
func NewINIv1Source() RUL0Source {
	return &iniV1Source{opts: ini.LoadOptions{AllowShadows: true, AllowBooleanKeys: true}}
}

func (s *iniV1Source) Parse(data []byte, onTriple func(section, key, value string) bool) error {
	f, err := ini.LoadSources(s.opts, data)
	if err != nil {
		return fmt.Errorf("rul0 ini: %w", err)
	}

	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			name = ""
		}
		for _, key := range sec.Keys() {
			values := key.ValueWithShadows()
			if len(values) == 0 {
				values = []string{key.String()}
			}
			for _, v := range values {
				if !onTriple(name, key.Name(), v) {
					return fmt.Errorf("rul0 ini: parsing stopped at section %q key %q", name, key.Name())
				}
			}
		}
	}
	return nil
}
