// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// emptyCellGlyph fills padding introduced by grid normalization (ragged
// rows made rectangular) and by Translate's grid growth. Not pinned by
// spec.md; chosen to match the '.' convention original_source/RUL0.cpp
// uses for "no cell" in its debug grid dumps.
const emptyCellGlyph = '.'

// NetworkType is the network kind a CheckType binds a cell-grid glyph to
// (spec.md §4.10, supplemented from original_source/src/RUL0.h since
// spec.md assumes but never enumerates the vocabulary).
type NetworkType int

// Recognized network types, plus the "unrecognized name" fallback.
const (
	NetworkTypeNone NetworkType = iota
	NetworkRoad
	NetworkRail
	NetworkHighway
	NetworkStreet
	NetworkPipe
	NetworkPowerline
	NetworkAvenue
	NetworkSubway
	NetworkLightRail
	NetworkMonorail
	NetworkOneWayRoad
	NetworkDirtRoad
	NetworkGroundHighway
)

var networkTypeNames = map[string]NetworkType{
	"road":          NetworkRoad,
	"rail":          NetworkRail,
	"highway":       NetworkHighway,
	"street":        NetworkStreet,
	"pipe":          NetworkPipe,
	"powerline":     NetworkPowerline,
	"avenue":        NetworkAvenue,
	"subway":        NetworkSubway,
	"lightrail":     NetworkLightRail,
	"monorail":      NetworkMonorail,
	"onewayroad":    NetworkOneWayRoad,
	"dirtroad":      NetworkDirtRoad,
	"groundhighway": NetworkGroundHighway,
}

// ParseNetworkType maps a case-insensitive network name to a NetworkType,
// returning NetworkTypeNone for anything unrecognized (the original's
// "this should never happen" fallback, not a parse failure).
func ParseNetworkType(name string) NetworkType {
	if t, ok := networkTypeNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return NetworkTypeNone
}

// NetworkCheck is one network-type/flag-byte/mask triple a CheckType
// glyph is bound to, plus the optional/check modifiers spec.md §4.10
// describes for CheckType's grammar.
type NetworkCheck struct {
	Type         NetworkType
	RuleFlagByte uint32
	HexMask      uint32
	Optional     bool
	Check        bool
}

// CheckType associates a glyph that appears in the cell grid with one or
// more network checks (spec.md §3/§4.10).
type CheckType struct {
	Glyph    byte
	Networks []NetworkCheck
}

// PreviewEffect is the puzzle piece's preview-effect descriptor: a
// display name plus the placement fields parsed from the `Piece` key
// (x, y, rotation, flip, instanceId).
type PreviewEffect struct {
	Name       string
	X, Y       float64
	Rotation   int
	Flip       int
	InstanceID uint32
}

// ReplacementIntersection is the "rot,flip" pair parsed from the
// ReplacementIntersection key.
type ReplacementIntersection struct {
	Rotation int
	Flip     int
}

// Transform is the declarative (copyFrom, rotate, transpose, translate)
// request a puzzle piece carries before the pipeline runs, and the record
// of what was actually executed afterward (spec.md §3 "appliedTransform").
type Transform struct {
	CopyFrom     uint32
	Rotate       int
	Transpose    bool
	TranslateDX  int
	TranslateDZ  int
}

// PuzzlePiece is one junction layout (spec.md §3). Declarative transform
// fields (CopyFrom/RotateCount/TransposeFlag/TranslateDX/TranslateDZ) are
// cleared by the pipeline once applied; RequestedTransform and
// AppliedTransform both hold the transform snapshot taken before copy-from,
// the latter recording it as executed.
type PuzzlePiece struct {
	ID uint32

	PreviewEffect PreviewEffect
	CellLayout    []string
	ConsLayout    []string
	CheckTypes    []CheckType

	AutoPathBase            uint32
	AutoTileBase             uint32
	PlaceQueryID             uint32
	ConvertQueryID           uint32
	Costs                    int
	AutoPlace                int
	HandleOffset             [2]int
	StepOffsets              [2]int
	OneWayDir                int // 8 is the "none" sentinel (spec.md §9)
	ReplacementIntersection  ReplacementIntersection

	CopyFrom      uint32
	RotateCount   int
	TransposeFlag bool
	TranslateDX   int
	TranslateDZ   int

	RequestedTransform Transform
	AppliedTransform   Transform
}

// Ordering is a rotation ring of piece ids plus its supplementary
// add-type rings, used by the game's placement logic (spec.md glossary).
type Ordering struct {
	RotationRing []uint32
	AddTypeRings [][]uint32
}

// RUL0Record is the decoded rule script: a list of orderings and a map
// from piece id to puzzle piece (spec.md §3).
type RUL0Record struct {
	Orderings []Ordering
	Pieces    map[uint32]*PuzzlePiece
}

// OrderingFor returns the ordering (if any) whose rotation ring contains
// pieceID. Absent from spec.md's own operation list but present in
// spirit per SPEC_FULL.md's SUPPLEMENTED FEATURES, since the glossary's
// definition of Ordering ("used by the game's placement logic") implies
// this lookup is the whole point of keeping the ring.
func (r *RUL0Record) OrderingFor(pieceID uint32) (*Ordering, bool) {
	for i := range r.Orderings {
		for _, id := range r.Orderings[i].RotationRing {
			if id == pieceID {
				return &r.Orderings[i], true
			}
		}
	}
	return nil, false
}

// SampleLayout returns the cell-grid glyph, the cons-grid glyph, and the
// resolved CheckType for that glyph at (row, col); both grids are
// normalized (ragged rows padded) before indexing (spec.md §4.10).
func (p *PuzzlePiece) SampleLayout(row, col int) (cellGlyph, consGlyph byte, check *CheckType) {
	cell := normalizeGrid(p.CellLayout)
	cons := normalizeGrid(p.ConsLayout)

	if row >= 0 && row < len(cell) && col >= 0 && col < len(cell[row]) {
		cellGlyph = cell[row][col]
	}
	if row >= 0 && row < len(cons) && col >= 0 && col < len(cons[row]) {
		consGlyph = cons[row][col]
	}
	for i := range p.CheckTypes {
		if p.CheckTypes[i].Glyph == cellGlyph {
			check = &p.CheckTypes[i]
			break
		}
	}
	return
}

// RUL0Source is the INI tokenizer interface spec.md §6 assumes: given the
// raw payload, it invokes onTriple once per (section, key, value) triple
// in file order; onTriple returning false terminates parsing with a
// line-numbered error (spec.md §6/§7). This module treats the tokenizer
// itself as an external collaborator (spec.md §1); NewINIv1Source in
// rul0_ini.go is the concrete backend this module wires in.
type RUL0Source interface {
	Parse(data []byte, onTriple func(section, key, value string) bool) error
}

// ParseRUL0 decodes the INI-flavored rule script via source, then runs
// the transformation pipeline (copy-from, rotate, transpose, translate)
// over every piece in ascending id order.
//
// Grounded on spec.md §4.10 and original_source/src/RUL0.cpp. Per
// spec.md §9's design note, the transient "current piece" pointer the
// original keeps is replaced here by a lookup in the Pieces map: every key
// is attributed by the piece id parsed from its section name, not by
// holding a live pointer across calls.
func ParseRUL0(buf []byte, source RUL0Source) (*RUL0Record, error) {
	if source == nil {
		return nil, NewFormatError("rul0", "no INI source supplied")
	}

	b := newRUL0Builder()
	if err := source.Parse(buf, b.onTriple); err != nil {
		return nil, fmt.Errorf("rul0: %w", err)
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := runRUL0Pipeline(b.record); err != nil {
		return nil, err
	}
	return b.record, nil
}

const highwaySectionPrefix = "highwayintersectioninfo_0x"

type rul0Builder struct {
	record             *RUL0Record
	currentOrderingIdx int
	err                error

	// networkTypes optionally extends/overrides ParseNetworkType's table
	// for this parse (RUL0Options.NetworkTypes). Nil uses the package
	// default only.
	networkTypes map[string]NetworkType
}

func newRUL0Builder() *rul0Builder {
	return &rul0Builder{
		record:             &RUL0Record{Pieces: make(map[uint32]*PuzzlePiece)},
		currentOrderingIdx: -1,
	}
}

func (b *rul0Builder) fail(err error) bool {
	b.err = err
	return false
}

// resolveNetworkType consults the builder's injected vocabulary
// (RUL0Options.NetworkTypes) first, falling back to the package default
// (ParseNetworkType).
func (b *rul0Builder) resolveNetworkType(name string) NetworkType {
	if b.networkTypes != nil {
		if t, ok := b.networkTypes[strings.ToLower(strings.TrimSpace(name))]; ok {
			return t
		}
	}
	return ParseNetworkType(name)
}

func (b *rul0Builder) pieceFor(id uint32) *PuzzlePiece {
	p, ok := b.record.Pieces[id]
	if !ok {
		p = &PuzzlePiece{ID: id, OneWayDir: 8}
		b.record.Pieces[id] = p
	}
	return p
}

func (b *rul0Builder) onTriple(section, key, value string) bool {
	sectionLower := strings.ToLower(strings.TrimSpace(section))
	keyLower := strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	if sectionLower == "" || sectionLower == "ordering" {
		return b.handleOrdering(keyLower, value)
	}
	if strings.HasPrefix(sectionLower, highwaySectionPrefix) {
		idStr := strings.TrimSpace(section)
		idStr = idStr[len(highwaySectionPrefix):]
		id, err := parseHexUint32(idStr)
		if err != nil {
			return b.fail(fmt.Errorf("rul0 section %q: %w", section, err))
		}
		return b.handlePieceKey(b.pieceFor(id), keyLower, value)
	}
	return true // other sections are ignored (spec.md §4.10)
}

func (b *rul0Builder) handleOrdering(key, value string) bool {
	switch key {
	case "rotationring":
		ring, err := parseHexList(value)
		if err != nil {
			return b.fail(err)
		}
		b.record.Orderings = append(b.record.Orderings, Ordering{RotationRing: ring})
		b.currentOrderingIdx = len(b.record.Orderings) - 1
		return true
	case "addtypes":
		if b.currentOrderingIdx < 0 {
			return b.fail(NewFormatError("rul0 ordering", "AddTypes before any RotationRing"))
		}
		ring, err := parseHexList(value)
		if err != nil {
			return b.fail(err)
		}
		o := &b.record.Orderings[b.currentOrderingIdx]
		o.AddTypeRings = append(o.AddTypeRings, ring)
		return true
	default:
		return b.fail(NewFormatError("rul0 ordering", "unknown key %q", key))
	}
}

func (b *rul0Builder) handlePieceKey(p *PuzzlePiece, key, value string) bool {
	var err error
	switch key {
	case "piece":
		var pe PreviewEffect
		pe, err = parsePieceLine(value)
		if err == nil {
			pe.Name = p.PreviewEffect.Name
			p.PreviewEffect = pe
		}
	case "previeweffect":
		p.PreviewEffect.Name = value
	case "celllayout":
		p.CellLayout = append(p.CellLayout, value)
	case "conslayout":
		p.ConsLayout = append(p.ConsLayout, value)
	case "checktype":
		var ct CheckType
		ct, err = parseCheckType(value, b.resolveNetworkType)
		if err == nil {
			p.CheckTypes = append(p.CheckTypes, ct)
		}
	case "autopathbase":
		p.AutoPathBase, err = parseHexUint32(value)
	case "autotilebase":
		p.AutoTileBase, err = parseHexUint32(value)
	case "placequeryid":
		p.PlaceQueryID, err = parseHexUint32(value)
	case "convertqueryid":
		p.ConvertQueryID, err = parseHexUint32(value)
	case "copyfrom":
		p.CopyFrom, err = parseHexUint32(value)
	case "costs":
		var n int
		n, err = strconv.Atoi(value)
		if err != nil {
			err = NewFormatError("rul0", "bad Costs %q: %v", value, err)
		}
		p.Costs = n
	case "autoplace":
		var n int
		n, err = strconv.Atoi(value)
		if err != nil {
			err = NewFormatError("rul0", "bad AutoPlace %q: %v", value, err)
		}
		p.AutoPlace = n
	case "handleoffset":
		var a, c int
		a, c, err = parseIntPair(value)
		p.HandleOffset = [2]int{a, c}
	case "stepoffsets":
		var a, c int
		a, c, err = parseIntPair(value)
		p.StepOffsets = [2]int{a, c}
	case "translate":
		p.TranslateDX, p.TranslateDZ, err = parseIntPair(value)
	case "onewaydir":
		p.OneWayDir, err = parseOneWayDir(value)
	case "rotate":
		p.RotateCount, err = parseRotateEnum(value)
	case "transpose":
		p.TransposeFlag, err = parseTransposeFlag(value)
	case "replacementintersection":
		p.ReplacementIntersection, err = parseReplacementIntersection(value)
	default:
		err = NewFormatError("rul0 piece", "unknown key %q", key)
	}
	if err != nil {
		return b.fail(err)
	}
	return true
}

// --- value parsing -------------------------------------------------------

func parseHexUint32(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, NewFormatError("rul0", "bad hex literal %q: %v", s, err)
	}
	return uint32(v), nil
}

func parseHexList(s string) ([]uint32, error) {
	fields := strings.Split(s, ",")
	out := make([]uint32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := parseHexUint32(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseIntPair(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, NewFormatError("rul0", "expected 2 comma-separated values, got %q", s)
	}
	a, err := parseIntegerLiteral(strings.TrimSpace(parts[0]), 32, true)
	if err != nil {
		return 0, 0, err
	}
	c, err := parseIntegerLiteral(strings.TrimSpace(parts[1]), 32, true)
	if err != nil {
		return 0, 0, err
	}
	return int(a), int(c), nil
}

func parsePieceLine(s string) (PreviewEffect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return PreviewEffect{}, NewFormatError("rul0 piece", "expected 5 fields, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return PreviewEffect{}, NewFormatError("rul0 piece", "bad x %q: %v", parts[0], err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return PreviewEffect{}, NewFormatError("rul0 piece", "bad y %q: %v", parts[1], err)
	}
	rot, err := parseIntegerLiteral(strings.TrimSpace(parts[2]), 32, false)
	if err != nil {
		return PreviewEffect{}, err
	}
	flip, err := parseIntegerLiteral(strings.TrimSpace(parts[3]), 32, false)
	if err != nil {
		return PreviewEffect{}, err
	}
	inst, err := parseIntegerLiteral(strings.TrimSpace(parts[4]), 32, false)
	if err != nil {
		return PreviewEffect{}, err
	}
	return PreviewEffect{X: x, Y: y, Rotation: int(rot), Flip: int(flip), InstanceID: uint32(inst)}, nil
}

func parseReplacementIntersection(s string) (ReplacementIntersection, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return ReplacementIntersection{}, NewFormatError("rul0", "bad ReplacementIntersection %q", s)
	}
	rot, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ReplacementIntersection{}, NewFormatError("rul0", "bad rotation %q: %v", parts[0], err)
	}
	if rot < 0 || rot > 3 {
		return ReplacementIntersection{}, NewDomainError("rul0 ReplacementIntersection", rot, "rotation out of range [0,3]")
	}
	flip, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ReplacementIntersection{}, NewFormatError("rul0", "bad flip %q: %v", parts[1], err)
	}
	return ReplacementIntersection{Rotation: rot, Flip: flip}, nil
}

func parseOneWayDir(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewFormatError("rul0", "bad OneWayDir %q: %v", s, err)
	}
	if n < 0 || n > 8 {
		return 0, NewDomainError("rul0 OneWayDir", n, "out of declared range [0,8]")
	}
	return n, nil
}

func parseRotateEnum(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, NewFormatError("rul0", "bad Rotate %q: %v", s, err)
	}
	if n < 0 || n > 3 {
		return 0, NewDomainError("rul0 Rotate", n, "out of declared range [0,3]")
	}
	return n, nil
}

func parseTransposeFlag(s string) (bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false, NewFormatError("rul0", "bad Transpose %q: %v", s, err)
	}
	if n != 0 && n != 1 {
		return false, NewDomainError("rul0 Transpose", n, "must be 0 or 1")
	}
	return n == 1, nil
}

// parseCheckType parses "G-net1:flagsHex[,maskHex] [optional] [check]
// [nextNet:net2:flags2[,mask2] ...]" (spec.md §4.10).
func parseCheckType(s string, resolve func(string) NetworkType) (CheckType, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return CheckType{}, NewFormatError("rul0 CheckType", "empty value")
	}

	glyphPart, netPart, ok := strings.Cut(fields[0], "-")
	if !ok || glyphPart == "" {
		return CheckType{}, NewFormatError("rul0 CheckType", "malformed glyph-network field %q", fields[0])
	}
	ct := CheckType{Glyph: glyphPart[0]}

	first, err := parseNetworkSpec(netPart, resolve)
	if err != nil {
		return CheckType{}, err
	}
	ct.Networks = append(ct.Networks, first)

	for _, tok := range fields[1:] {
		switch {
		case strings.EqualFold(tok, "optional"):
			ct.Networks[len(ct.Networks)-1].Optional = true
		case strings.EqualFold(tok, "check"):
			ct.Networks[len(ct.Networks)-1].Check = true
		case len(tok) > len("nextnet:") && strings.EqualFold(tok[:len("nextnet:")], "nextnet:"):
			next, err := parseNetworkSpec(tok[len("nextnet:"):], resolve)
			if err != nil {
				return CheckType{}, err
			}
			ct.Networks = append(ct.Networks, next)
		default:
			return CheckType{}, NewFormatError("rul0 CheckType", "unrecognized token %q", tok)
		}
	}
	return ct, nil
}

func parseNetworkSpec(s string, resolve func(string) NetworkType) (NetworkCheck, error) {
	name, hexPart, ok := strings.Cut(s, ":")
	if !ok {
		return NetworkCheck{}, NewFormatError("rul0 CheckType", "malformed network spec %q", s)
	}
	hexFields := strings.Split(hexPart, ",")
	flags, err := parseHexUint32(hexFields[0])
	if err != nil {
		return NetworkCheck{}, err
	}
	mask := flags
	if len(hexFields) > 1 {
		mask, err = parseHexUint32(hexFields[1])
		if err != nil {
			return NetworkCheck{}, err
		}
	}
	return NetworkCheck{Type: resolve(name), RuleFlagByte: flags, HexMask: mask}, nil
}

// --- transformation pipeline ---------------------------------------------

// runRUL0Pipeline processes pieces in ascending id order: snapshot the
// declarative transform, resolve copy-from, record appliedTransform, then
// apply rotate/transpose/translate and clear the declarative fields
// (spec.md §4.10).
func runRUL0Pipeline(rec *RUL0Record) error {
	ids := make([]uint32, 0, len(rec.Pieces))
	for id := range rec.Pieces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p := rec.Pieces[id]

		requested := Transform{
			CopyFrom: p.CopyFrom, Rotate: p.RotateCount, Transpose: p.TransposeFlag,
			TranslateDX: p.TranslateDX, TranslateDZ: p.TranslateDZ,
		}

		if requested.CopyFrom != 0 {
			if src, ok := rec.Pieces[requested.CopyFrom]; ok {
				copyPuzzlePieceFields(p, src)
			}
		}

		p.RequestedTransform = requested
		p.AppliedTransform = requested

		if p.AppliedTransform.Rotate != 0 {
			rotatePuzzlePiece(p, p.AppliedTransform.Rotate)
		}
		if p.AppliedTransform.Transpose {
			transposePuzzlePiece(p)
		}
		if p.AppliedTransform.TranslateDX != 0 || p.AppliedTransform.TranslateDZ != 0 {
			translatePuzzlePiece(p, p.AppliedTransform.TranslateDX, p.AppliedTransform.TranslateDZ)
		}

		p.CopyFrom = 0
		p.RotateCount = 0
		p.TransposeFlag = false
		p.TranslateDX = 0
		p.TranslateDZ = 0
	}
	return nil
}

// copyPuzzlePieceFields deep-copies every field from src into dst except
// dst's own id and PlaceQueryID (spec.md §4.10 step 2).
func copyPuzzlePieceFields(dst, src *PuzzlePiece) {
	id, placeQueryID := dst.ID, dst.PlaceQueryID
	*dst = *src
	dst.ID = id
	dst.PlaceQueryID = placeQueryID

	dst.CellLayout = append([]string(nil), src.CellLayout...)
	dst.ConsLayout = append([]string(nil), src.ConsLayout...)
	dst.CheckTypes = make([]CheckType, len(src.CheckTypes))
	for i, ct := range src.CheckTypes {
		dst.CheckTypes[i] = CheckType{Glyph: ct.Glyph, Networks: append([]NetworkCheck(nil), ct.Networks...)}
	}
}

func normalizeGrid(grid []string) []string {
	maxW := 0
	for _, row := range grid {
		if len(row) > maxW {
			maxW = len(row)
		}
	}
	out := make([]string, len(grid))
	for i, row := range grid {
		if len(row) < maxW {
			row += strings.Repeat(string(emptyCellGlyph), maxW-len(row))
		}
		out[i] = row
	}
	return out
}

func rotateGrid90CW(grid []string) []string {
	h := len(grid)
	if h == 0 {
		return grid
	}
	w := len(grid[0])
	out := make([][]byte, w)
	for x := 0; x < w; x++ {
		out[x] = make([]byte, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[x][h-1-y] = grid[y][x]
		}
	}
	result := make([]string, w)
	for i, row := range out {
		result[i] = string(row)
	}
	return result
}

func rotateGrid(grid []string, k int) []string {
	g := normalizeGrid(grid)
	k = ((k % 4) + 4) % 4
	for i := 0; i < k; i++ {
		g = rotateGrid90CW(g)
	}
	return g
}

func transposeGrid(grid []string) []string {
	g := normalizeGrid(grid)
	h := len(g)
	if h == 0 {
		return g
	}
	w := len(g[0])
	out := make([][]byte, w)
	for x := 0; x < w; x++ {
		out[x] = make([]byte, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[x][y] = g[y][x]
		}
	}
	result := make([]string, w)
	for i, row := range out {
		result[i] = string(row)
	}
	return result
}

func translateGrid(grid []string, dx, dz int) []string {
	g := normalizeGrid(grid)
	width := 0
	if len(g) > 0 {
		width = len(g[0])
	}
	if dx < 0 {
		dx = 0
	}
	if dz < 0 {
		dz = 0
	}

	padRow := strings.Repeat(string(emptyCellGlyph), width+dx)
	out := make([]string, 0, len(g)+dz)
	for i := 0; i < dz; i++ {
		out = append(out, padRow)
	}
	leftPad := strings.Repeat(string(emptyCellGlyph), dx)
	for _, row := range g {
		out = append(out, leftPad+row)
	}
	return out
}

// rotatePoint rotates (x, y) by k quarter-turns clockwise about the
// origin in the grid's y-up coordinate system. Not numerically pinned by
// spec.md (no worked example exercises it); chosen so a full 4-turn
// rotation is exactly the identity, matching the Rotate-four-times
// invariant in spec.md §8.
func rotatePoint(x, y float64, k int) (float64, float64) {
	k = ((k % 4) + 4) % 4
	for i := 0; i < k; i++ {
		x, y = y, -x
	}
	return x, y
}

func rotatePreviewEffect(pe PreviewEffect, k int) PreviewEffect {
	pe.X, pe.Y = rotatePoint(pe.X, pe.Y, k)
	pe.Rotation = ((pe.Rotation+k*90)%360 + 360) % 360
	return pe
}

func transposePreviewEffect(pe PreviewEffect) PreviewEffect {
	pe.X, pe.Y = pe.Y, pe.X
	pe.Flip = 1 - pe.Flip
	return pe
}

func translatePreviewEffect(pe PreviewEffect, dx, dz int) PreviewEffect {
	pe.X += float64(dx)
	pe.Y += float64(dz)
	return pe
}

// onewayTransposePermutation implements "W<->N, NE<->SW, E<->S (NW, SE
// fixed)" for directions numbered 0..7 as N,NE,E,SE,S,SW,W,NW clockwise.
var onewayTransposePermutation = map[int]int{0: 6, 6: 0, 1: 5, 5: 1, 2: 4, 4: 2, 3: 3, 7: 7}

func transposeOneWayDir(dir int) int {
	if dir >= 8 {
		return dir
	}
	if v, ok := onewayTransposePermutation[dir]; ok {
		return v
	}
	return dir
}

func cyclicRotateLeft32(v uint32, bits uint) uint32 {
	bits %= 32
	if bits == 0 {
		return v
	}
	return (v << bits) | (v >> (32 - bits))
}

func rotateNetworkWord(v uint32, k int) uint32 {
	shift := uint(8*((k%4+4)%4)) % 32
	return cyclicRotateLeft32(v, shift)
}

// transposeNetworkWord treats v as four 8-bit slots [S,E,N,W] from high to
// low and permutes them to [E,S,W,N] (spec.md §4.10).
func transposeNetworkWord(v uint32) uint32 {
	w := byte(v)
	n := byte(v >> 8)
	e := byte(v >> 16)
	s := byte(v >> 24)
	return uint32(n) | uint32(w)<<8 | uint32(s)<<16 | uint32(e)<<24
}

func rotatePuzzlePiece(p *PuzzlePiece, k int) {
	p.CellLayout = rotateGrid(p.CellLayout, k)
	p.ConsLayout = rotateGrid(p.ConsLayout, k)
	p.PreviewEffect = rotatePreviewEffect(p.PreviewEffect, k)
	if p.OneWayDir < 8 {
		p.OneWayDir = ((p.OneWayDir+2*k)%8 + 8) % 8
	}
	for i := range p.CheckTypes {
		for j := range p.CheckTypes[i].Networks {
			n := &p.CheckTypes[i].Networks[j]
			n.RuleFlagByte = rotateNetworkWord(n.RuleFlagByte, k)
			n.HexMask = rotateNetworkWord(n.HexMask, k)
		}
	}
}

func transposePuzzlePiece(p *PuzzlePiece) {
	p.CellLayout = transposeGrid(p.CellLayout)
	p.ConsLayout = transposeGrid(p.ConsLayout)
	p.PreviewEffect = transposePreviewEffect(p.PreviewEffect)
	p.OneWayDir = transposeOneWayDir(p.OneWayDir)
	for i := range p.CheckTypes {
		for j := range p.CheckTypes[i].Networks {
			n := &p.CheckTypes[i].Networks[j]
			n.RuleFlagByte = transposeNetworkWord(n.RuleFlagByte)
			n.HexMask = transposeNetworkWord(n.HexMask)
		}
	}
}

func translatePuzzlePiece(p *PuzzlePiece, dx, dz int) {
	p.CellLayout = translateGrid(p.CellLayout, dx, dz)
	p.ConsLayout = translateGrid(p.ConsLayout, dx, dz)
	p.PreviewEffect = translatePreviewEffect(p.PreviewEffect, dx, dz)
}
