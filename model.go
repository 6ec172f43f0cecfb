// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import "log/slog"

// Envelope is the fixed-size archive header (spec.md §3/§6): major/minor
// version, two timestamps, indexType (only 7 is accepted), and the byte
// offset/count/length of the index table. Hole-entry fields are parsed
// but unused, matching spec.md's own "parsed, ignored" treatment.
type Envelope struct {
	MajorVersion uint32
	MinorVersion uint32
	CreatedAt    uint32
	ModifiedAt   uint32
	IndexType    uint32

	IndexEntryCount  uint32
	IndexOffset      uint32
	IndexByteLength  uint32

	HoleEntryCount uint32
	HoleOffset     uint32
	HoleSize       uint32
}

// IndexEntry is one parsed index-table record: a key, the byte offset and
// length of its payload, and an optional decompressed length populated
// from the directory record if present.
type IndexEntry struct {
	Key    Key
	Offset uint32
	Size   uint32

	// DecompressedSize is set from the directory record (spec.md §3's
	// "Directory record"). nil means no directory entry named this key.
	DecompressedSize *uint32
}

// ReaderOptions configures an archive Reader, following the teacher's
// Options-struct-with-applyDefaults idiom (`ReaderOptions` in
// github.com/woozymasta/pbo) rather than functional options.
type ReaderOptions struct {
	// Logger receives the diagnostic logs spec.md §7 calls for (entry
	// key, sizes, format codes) at decoder entry points. Never
	// load-bearing for correctness. Defaults to a tint-backed stderr
	// logger, matching ossyrian-mintyparse's own default handler.
	Logger *slog.Logger
}

// applyDefaults fills zero-valued reader options with defaults, matching
// github.com/woozymasta/pbo's ReaderOptions.applyDefaults pattern.
func (o *ReaderOptions) applyDefaults() {
	if o.Logger == nil {
		o.Logger = defaultLogger()
	}
}
