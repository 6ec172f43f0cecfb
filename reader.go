// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/woozymasta/pathrules"
)

// envelopeMagic is the fixed 4-byte magic at offset 0 (spec.md §6).
const envelopeMagic = "DBPF"

// envelopeMinSize is the number of leading bytes the envelope parser
// touches (through the hole-size field at offset 56..60); the real DBPF
// header is padded to 96 bytes on disk but nothing past offset 60 is
// consumed here.
const envelopeMinSize = 60

// indexEntrySize is the byte length of one 20-byte index-table record
// (type, group, instance, offset, size).
const indexEntrySize = 20

// directoryRecordSize is the byte length of one directory-record tuple
// (type, group, instance, decompressedSize). spec.md §9 Open Questions
// pins this at 16 bytes. A directory payload whose length is not a
// multiple of 16 fails with ErrDirectoryRecordSize; other record layouts
// are neither detected nor supported.
const directoryRecordSize = 16

// Reader provides random-access read-only access to a parsed DBPF
// archive: the envelope, the key index, and secondary (type/group/
// instance) indices, serving entry payloads decompressed on demand.
//
// Grounded on spec.md §4.5 and original_source/src/DBPFFile.cpp; its
// buffered-parse-then-index shape follows github.com/woozymasta/pbo's
// own Reader (reader.go).
type Reader struct {
	source *MappedFile // non-nil when opened from a file path
	buf    []byte      // whole-archive view: mapped range or caller buffer

	envelope Envelope
	entries  []*IndexEntry

	byKey      map[Key]*IndexEntry
	byType     map[uint32][]*IndexEntry
	byGroup    map[uint32][]*IndexEntry
	byInstance map[uint32][]*IndexEntry

	catalog *Catalog
	log     *slog.Logger

	mu     sync.Mutex // guards closed
	closed bool
}

// Open opens the archive at path (backed by the Mapped-File Source,
// spec.md §4.3) and parses its envelope and index.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens the archive at path using explicit reader
// options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	opts.applyDefaults()

	mf, err := OpenMappedFile(path)
	if err != nil {
		return nil, err
	}

	buf, err := mf.MapRange(0, mf.Size())
	if err != nil {
		_ = mf.Close()
		return nil, err
	}

	r := &Reader{source: mf, buf: buf, catalog: NewCatalog(), log: opts.Logger}
	if err := r.parse(); err != nil {
		_ = mf.Close()
		return nil, err
	}
	return r, nil
}

// OpenBytes parses an archive already held in memory by the caller; the
// Reader borrows buf and never copies it (spec.md §9 "Resource
// ownership").
func OpenBytes(buf []byte) (*Reader, error) {
	return OpenBytesWithOptions(buf, ReaderOptions{})
}

// OpenBytesWithOptions parses a caller-owned byte buffer using explicit
// reader options.
func OpenBytesWithOptions(buf []byte, opts ReaderOptions) (*Reader, error) {
	opts.applyDefaults()
	r := &Reader{buf: buf, catalog: NewCatalog(), log: opts.Logger}
	if err := r.parse(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the reader's file handle/mapping, if it owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.source != nil {
		return r.source.Close()
	}
	return nil
}

// Envelope returns the parsed archive envelope.
func (r *Reader) Envelope() Envelope { return r.envelope }

// Entries returns every parsed index entry, in archive (on-disk) order.
func (r *Reader) Entries() []*IndexEntry {
	out := make([]*IndexEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// parse reads the fixed envelope and index table and builds the
// secondary indices, then attaches directory sizes if a directory entry
// is present (spec.md §4.5).
func (r *Reader) parse() error {
	if len(r.buf) < envelopeMinSize {
		return NewFormatError("dbpf envelope", "archive too small for header (%d bytes)", len(r.buf))
	}

	er := NewByteReader(r.buf)
	magic, err := er.ReadString(4)
	if err != nil {
		return err
	}
	if magic != envelopeMagic {
		return NewFormatError("dbpf envelope", "bad magic %q", magic)
	}

	if err := er.Seek(4); err != nil {
		return err
	}
	majorVersion, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	minorVersion, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	if majorVersion != 1 || minorVersion != 0 {
		return NewFormatError("dbpf envelope", "%w: %d.%d", ErrUnsupportedVersion, majorVersion, minorVersion)
	}

	if err := er.Seek(24); err != nil {
		return err
	}
	createdAt, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	modifiedAt, err := er.ReadUint32LE()
	if err != nil {
		return err
	}

	if err := er.Seek(32); err != nil {
		return err
	}
	indexType, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	if indexType != 7 {
		return NewFormatError("dbpf envelope", "%w: %d", ErrUnsupportedIndexType, indexType)
	}

	indexEntryCount, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	indexOffset, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	indexByteLength, err := er.ReadUint32LE()
	if err != nil {
		return err
	}

	holeEntryCount, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	holeOffset, err := er.ReadUint32LE()
	if err != nil {
		return err
	}
	holeSize, err := er.ReadUint32LE()
	if err != nil {
		return err
	}

	r.envelope = Envelope{
		MajorVersion: majorVersion, MinorVersion: minorVersion,
		CreatedAt: createdAt, ModifiedAt: modifiedAt,
		IndexType: indexType,
		IndexEntryCount: indexEntryCount, IndexOffset: indexOffset, IndexByteLength: indexByteLength,
		HoleEntryCount: holeEntryCount, HoleOffset: holeOffset, HoleSize: holeSize,
	}

	if err := r.parseIndex(indexOffset, indexEntryCount); err != nil {
		return err
	}
	return r.applyDirectory()
}

func (r *Reader) parseIndex(indexOffset, count uint32) error {
	needed := uint64(indexOffset) + uint64(count)*indexEntrySize
	if needed > uint64(len(r.buf)) {
		return NewFormatError("dbpf index", "index table [%d,%d) does not fit in file of size %d",
			indexOffset, needed, len(r.buf))
	}

	ir := NewByteReader(r.buf)
	if err := ir.Seek(int(indexOffset)); err != nil {
		return err
	}

	r.entries = make([]*IndexEntry, 0, count)
	r.byKey = make(map[Key]*IndexEntry, count)
	r.byType = make(map[uint32][]*IndexEntry)
	r.byGroup = make(map[uint32][]*IndexEntry)
	r.byInstance = make(map[uint32][]*IndexEntry)

	for i := uint32(0); i < count; i++ {
		typ, err := ir.ReadUint32LE()
		if err != nil {
			return err
		}
		group, err := ir.ReadUint32LE()
		if err != nil {
			return err
		}
		instance, err := ir.ReadUint32LE()
		if err != nil {
			return err
		}
		offset, err := ir.ReadUint32LE()
		if err != nil {
			return err
		}
		size, err := ir.ReadUint32LE()
		if err != nil {
			return err
		}
		if uint64(offset)+uint64(size) > uint64(len(r.buf)) {
			return NewFormatError("dbpf index", "entry %d payload [%d,%d) is outside the file", i, offset, uint64(offset)+uint64(size))
		}

		key := Key{Type: typ, Group: group, Instance: instance}
		e := &IndexEntry{Key: key, Offset: offset, Size: size}
		r.entries = append(r.entries, e)
		r.byKey[key] = e
		r.byType[typ] = append(r.byType[typ], e)
		r.byGroup[group] = append(r.byGroup[group], e)
		r.byInstance[instance] = append(r.byInstance[instance], e)
	}
	return nil
}

// applyDirectory locates the well-known directory entry (if present) and
// attaches each listed key's decompressed size to its matching index
// entry (spec.md §3/§6).
func (r *Reader) applyDirectory() error {
	dirEntry, ok := r.byKey[DirectoryKey]
	if !ok {
		return nil
	}

	payload, err := r.ReadEntry(dirEntry)
	if err != nil {
		return fmt.Errorf("dbpf directory: %w", err)
	}
	if len(payload)%directoryRecordSize != 0 {
		return &FormatError{Context: "dbpf directory", Err: ErrDirectoryRecordSize}
	}

	dr := NewByteReader(payload)
	for dr.Remaining() > 0 {
		typ, err := dr.ReadUint32LE()
		if err != nil {
			return err
		}
		group, err := dr.ReadUint32LE()
		if err != nil {
			return err
		}
		instance, err := dr.ReadUint32LE()
		if err != nil {
			return err
		}
		size, err := dr.ReadUint32LE()
		if err != nil {
			return err
		}

		key := Key{Type: typ, Group: group, Instance: instance}
		e, ok := r.byKey[key]
		if !ok {
			return NewFormatError("dbpf directory", "directory lists key %+v with no matching index entry", key)
		}
		sz := size
		e.DecompressedSize = &sz
	}
	return nil
}

// FindEntry returns the unique index entry for key, or ErrEntryNotFound.
func (r *Reader) FindEntry(key Key) (*IndexEntry, error) {
	if e, ok := r.byKey[key]; ok {
		return e, nil
	}
	return nil, &NotFoundError{Query: fmt.Sprintf("key %+v", key)}
}

// FindEntries returns every index entry matching mask. When mask.Type is
// present the search walks the type bucket, else the group bucket if
// present, else the instance bucket if present, else the whole index
// (spec.md §4.5).
func (r *Reader) FindEntries(mask Mask) []*IndexEntry {
	var candidates []*IndexEntry
	switch {
	case mask.Type != nil:
		candidates = r.byType[*mask.Type]
	case mask.Group != nil:
		candidates = r.byGroup[*mask.Group]
	case mask.Instance != nil:
		candidates = r.byInstance[*mask.Instance]
	default:
		candidates = r.entries
	}

	out := make([]*IndexEntry, 0, len(candidates))
	for _, e := range candidates {
		if mask.Matches(e.Key) {
			out = append(out, e)
		}
	}
	return out
}

// FindEntriesByLabel translates label through the catalog and delegates
// to FindEntries.
func (r *Reader) FindEntriesByLabel(label string) ([]*IndexEntry, error) {
	mask, err := r.catalog.MaskForLabel(label)
	if err != nil {
		return nil, err
	}
	return r.FindEntries(mask), nil
}

// FindEntriesByLabelGlob resolves every catalog label matched by rules
// (shell-glob-style, via the catalog's pathrules-backed LabelsByGlob) and
// returns the union of entries for each, in catalog order.
func (r *Reader) FindEntriesByLabelGlob(rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]*IndexEntry, error) {
	labels, err := r.catalog.LabelsByGlob(rules, opts)
	if err != nil {
		return nil, err
	}
	var out []*IndexEntry
	seen := make(map[*IndexEntry]bool)
	for _, label := range labels {
		mask, err := r.catalog.MaskForLabel(label)
		if err != nil {
			continue
		}
		for _, e := range r.FindEntries(mask) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// Describe returns the catalog label for an entry's key.
func (r *Reader) Describe(e *IndexEntry) string {
	return r.catalog.Describe(e.Key)
}

// rawPayload returns the entry's raw (not yet decompressed) bytes. It
// borrows directly from r.buf; spec.md §9 flags the reference
// implementation's "dead literal re-encode" step that copies this into an
// owned vector even when mapped, and this module deliberately does not
// repeat that.
func (r *Reader) rawPayload(e *IndexEntry) ([]byte, error) {
	start, end := uint64(e.Offset), uint64(e.Offset)+uint64(e.Size)
	if end > uint64(len(r.buf)) {
		return nil, &BoundsError{Op: "dbpf entry payload", Requested: int(e.Size), Offset: int(e.Offset), Remaining: len(r.buf) - int(e.Offset)}
	}
	return r.buf[start:end], nil
}

// ReadEntry locates entry's raw payload, applies the three-step
// payload-normalization of spec.md §4.5 (chunk-header strip, QFS-magic
// scan, conditional decompress), and returns the resulting bytes.
func (r *Reader) ReadEntry(e *IndexEntry) ([]byte, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, &IoError{Op: "read entry", Err: ErrClosed}
	}

	raw, err := r.rawPayload(e)
	if err != nil {
		return nil, err
	}

	r.log.Debug("dbpf: reading entry", "type", e.Key.Type, "group", e.Key.Group, "instance", e.Key.Instance, "size", e.Size)

	body := stripChunkHeader(raw)
	body = advanceToQFSMagic(body)

	if IsQFSCompressed(body) {
		out, err := QFSDecompress(body)
		if err != nil {
			return nil, fmt.Errorf("dbpf entry %+v: %w", e.Key, err)
		}
		return out, nil
	}
	return body, nil
}

// stripChunkHeader removes an optional leading chunk header: 4-byte
// compressed size, 4-byte uncompressed size, then a 0x10/0x11 flag byte
// at offset 8 or 10, with an optional extra 4-byte body length following
// a 0x11 flag (spec.md §4.5).
func stripChunkHeader(buf []byte) []byte {
	if len(buf) >= 9 && (buf[8] == 0x10 || buf[8] == 0x11) {
		headerLen := 9
		if buf[8] == 0x11 && len(buf) >= 13 {
			headerLen = 13
		}
		return buf[headerLen:]
	}
	if len(buf) >= 11 && (buf[10] == 0x10 || buf[10] == 0x11) {
		headerLen := 11
		if buf[10] == 0x11 && len(buf) >= 15 {
			headerLen = 15
		}
		return buf[headerLen:]
	}
	return buf
}

// advanceToQFSMagic searches the first 16 bytes for the big-endian QFS
// magic and advances to it if found, leaving buf unchanged otherwise
// (spec.md §4.5 step ii).
func advanceToQFSMagic(buf []byte) []byte {
	limit := 16
	if limit > len(buf)-1 {
		limit = len(buf) - 1
	}
	for i := 0; i < limit; i++ {
		if (uint16(buf[i]&0xFE)<<8 | uint16(buf[i+1])) == QFSMagic {
			return buf[i:]
		}
	}
	return buf
}

// resolveEntry resolves anything the convenience loaders accept to a single
// index entry: a Key, a Mask, a label string, or an *IndexEntry.
func (r *Reader) resolveEntry(ref any) (*IndexEntry, error) {
	switch v := ref.(type) {
	case *IndexEntry:
		return v, nil
	case Key:
		return r.FindEntry(v)
	case Mask:
		matches := r.FindEntries(v)
		if len(matches) == 0 {
			return nil, &NotFoundError{Query: fmt.Sprintf("mask %+v", v)}
		}
		return matches[0], nil
	case string:
		matches, err := r.FindEntriesByLabel(v)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, &NotFoundError{Query: "label " + v}
		}
		return matches[0], nil
	default:
		return nil, NewFormatError("dbpf loader", "unsupported entry reference type %T", ref)
	}
}

// LoadExemplar resolves ref (a Key, Mask, label, or *IndexEntry) and
// decodes its payload as an Exemplar/Cohort.
func (r *Reader) LoadExemplar(ref any) (*ExemplarRecord, error) {
	e, err := r.resolveEntry(ref)
	if err != nil {
		return nil, err
	}
	buf, err := r.ReadEntry(e)
	if err != nil {
		return nil, err
	}
	return ParseExemplar(buf)
}

// LoadLText resolves ref and decodes its payload as an LText string.
func (r *Reader) LoadLText(ref any) (LTextRecord, error) {
	e, err := r.resolveEntry(ref)
	if err != nil {
		return LTextRecord{}, err
	}
	buf, err := r.ReadEntry(e)
	if err != nil {
		return LTextRecord{}, err
	}
	return ParseLText(buf)
}

// LoadFSH resolves ref and decodes its payload as an FSH image container.
func (r *Reader) LoadFSH(ref any) (*FSHRecord, error) {
	e, err := r.resolveEntry(ref)
	if err != nil {
		return nil, err
	}
	buf, err := r.ReadEntry(e)
	if err != nil {
		return nil, err
	}
	return ParseFSH(buf)
}

// LoadS3D resolves ref and decodes its payload as an S3D model.
func (r *Reader) LoadS3D(ref any) (*S3DRecord, error) {
	e, err := r.resolveEntry(ref)
	if err != nil {
		return nil, err
	}
	buf, err := r.ReadEntry(e)
	if err != nil {
		return nil, err
	}
	return ParseS3D(buf)
}

// LoadRUL0 resolves ref and decodes its payload as a RUL0 rule script
// using the given INI triple source.
func (r *Reader) LoadRUL0(ref any, source RUL0Source) (*RUL0Record, error) {
	e, err := r.resolveEntry(ref)
	if err != nil {
		return nil, err
	}
	buf, err := r.ReadEntry(e)
	if err != nil {
		return nil, err
	}
	return ParseRUL0(buf, source)
}
