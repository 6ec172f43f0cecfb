// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

// s3dMaxBlocks bounds VERT/INDX/PRIM/MATS block counts (spec.md §4.9).
const s3dMaxBlocks = 1000

// BoundingBox is an axis-aligned min/max box over vertex positions.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

func (b *BoundingBox) include(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func newBoundingBox() BoundingBox {
	inf := float32(3.4e38)
	return BoundingBox{Min: [3]float32{inf, inf, inf}, Max: [3]float32{-inf, -inf, -inf}}
}

func (b BoundingBox) union(other BoundingBox) BoundingBox {
	out := b
	out.include(other.Min)
	out.include(other.Max)
	return out
}

// VertexFormat describes the per-vertex attribute counts decoded from a
// VERT buffer's format field.
type VertexFormat struct {
	Coords int
	Colors int
	Texs   int
}

// decodeS3DVertexFormat decodes the packed or numeric-id vertex format,
// grounded on original_source/src/S3DReader.cpp::DecodeVertexFormat.
// SPEC_FULL.md supplements spec.md's explicit id list {1,2,3,10,11} with
// the original's numeric default (1 coord, 0 colors, 1 tex) for any other
// non-high-bit id, rather than failing.
func decodeS3DVertexFormat(format uint32) VertexFormat {
	if format&0x80000000 != 0 {
		return VertexFormat{
			Coords: int(format & 0x3),
			Colors: int((format >> 8) & 0x3),
			Texs:   int((format >> 14) & 0x3),
		}
	}
	switch format {
	case 1:
		return VertexFormat{Coords: 1, Colors: 1, Texs: 0}
	case 2:
		return VertexFormat{Coords: 1, Colors: 0, Texs: 1}
	case 3:
		return VertexFormat{Coords: 1, Colors: 0, Texs: 2}
	case 10:
		return VertexFormat{Coords: 1, Colors: 1, Texs: 1}
	case 11:
		return VertexFormat{Coords: 1, Colors: 1, Texs: 2}
	default:
		return VertexFormat{Coords: 1, Colors: 0, Texs: 1}
	}
}

func s3dVertexStride(f VertexFormat) int {
	stride := 12 // position: 3 floats
	if f.Colors > 0 {
		stride += 4
	}
	if f.Texs > 0 {
		stride += 8
	}
	if f.Texs > 1 {
		stride += 8
	}
	return stride
}

// Vertex is one decoded vertex: position, optional BGRA color normalized
// to [0,1], and up to two UV sets.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
	HasColor bool
	UV       [2]float32
	UV2      [2]float32
}

// VertexBuffer is one VERT chunk entry: its decoded format, stride, and
// vertex list, plus its own bounding box.
type VertexBuffer struct {
	Flags  uint16
	Format VertexFormat
	Stride int
	Verts  []Vertex
	BBox   BoundingBox
}

// IndexBuffer is one INDX chunk entry.
type IndexBuffer struct {
	Flags   uint16
	Stride  uint16
	Indices []uint16
}

// Primitive is one draw call keyed by mode + offset + length into an
// index buffer. Type semantics (0=triangle list, 1=triangle strip,
// 2=reserved) are used by consumers, not by the decoder.
type Primitive struct {
	Type   uint32
	First  uint32
	Length uint32
}

// PrimitiveBlock is one PRIM chunk entry: a list of draw calls.
type PrimitiveBlock struct {
	Prims []Primitive
}

// TextureRef is one material's texture reference.
type TextureRef struct {
	TextureID  uint32
	WrapS      uint8
	WrapT      uint8
	MagFilter  uint8
	MinFilter  uint8
	AnimRate   uint16
	AnimMode   uint16
	AnimName   string
}

// Material is one MATS chunk entry: blend/alpha/depth state plus its
// texture references.
type Material struct {
	Flags          uint32
	AlphaFunc      uint8
	DepthFunc      uint8
	SrcBlend       uint8
	DstBlend       uint8
	AlphaThreshold float32
	MaterialClass  uint32
	Textures       []TextureRef
}

// AnimFrame selects (VertexBuffer, IndexBuffer, PrimitiveBlock, Material)
// by index for one mesh's frame.
type AnimFrame struct {
	VertexBlock    uint16
	IndexBlock     uint16
	PrimitiveBlock uint16
	MaterialBlock  uint16
}

// AnimMesh is one per-mesh animation track.
type AnimMesh struct {
	Name   string
	Flags  uint8
	Frames []AnimFrame
}

// Animation is the ANIM chunk: global animation parameters plus a list
// of per-mesh frame tables.
type Animation struct {
	FrameCount   uint16
	FrameRate    uint16
	AnimMode     uint16
	Flags        uint32
	Displacement float32
	Meshes       []AnimMesh
}

// S3DRecord is the decoded 3-D model: version, vertex/index/primitive/
// material tables, the animation table, and the global bounding box
// (the union of all vertex-buffer boxes).
type S3DRecord struct {
	MajorVersion uint16
	MinorVersion uint16
	VertexBuffers   []VertexBuffer
	IndexBuffers    []IndexBuffer
	PrimitiveBlocks []PrimitiveBlock
	Materials       []Material
	Animation       Animation
	BBox            BoundingBox
}

// ParseS3D decodes the chunked 3-D model format: magic "3DMD" + total
// length, then six chunks in exact order (HEAD, VERT, INDX, PRIM, MATS,
// ANIM). Missing or reordered chunks fail.
//
// Grounded on original_source/src/S3DReader.cpp.
func ParseS3D(buf []byte) (*S3DRecord, error) {
	r := NewByteReader(buf)
	magic, err := r.ReadString(4)
	if err != nil {
		return nil, err
	}
	if magic != "3DMD" {
		return nil, NewFormatError("s3d", "bad magic %q", magic)
	}
	if _, err := r.ReadUint32LE(); err != nil { // totalLength, unused
		return nil, err
	}

	rec := &S3DRecord{}

	order := []string{"HEAD", "VERT", "INDX", "PRIM", "MATS", "ANIM"}
	for _, want := range order {
		tag, err := r.ReadString(4)
		if err != nil {
			return nil, err
		}
		if tag != want {
			return nil, NewFormatError("s3d", "expected chunk %q, got %q", want, tag)
		}
		length, err := r.ReadUint32LE()
		if err != nil {
			return nil, err
		}
		bodyStart := r.Offset()
		bodyEnd := bodyStart + int(length) - 8
		if bodyEnd < bodyStart || bodyEnd > r.Len() {
			return nil, &BoundsError{Op: "s3d chunk " + tag, Requested: int(length), Offset: bodyStart, Remaining: r.Remaining()}
		}

		switch want {
		case "HEAD":
			if err := parseS3DHead(r, rec); err != nil {
				return nil, err
			}
		case "VERT":
			if err := parseS3DVert(r, rec); err != nil {
				return nil, err
			}
		case "INDX":
			if err := parseS3DIndx(r, rec); err != nil {
				return nil, err
			}
		case "PRIM":
			if err := parseS3DPrim(r, rec); err != nil {
				return nil, err
			}
		case "MATS":
			if err := parseS3DMats(r, rec); err != nil {
				return nil, err
			}
		case "ANIM":
			if err := parseS3DAnim(r, rec); err != nil {
				return nil, err
			}
		}

		if err := r.Seek(bodyEnd); err != nil {
			return nil, err
		}
	}

	bbox := newBoundingBox()
	for _, vb := range rec.VertexBuffers {
		bbox = bbox.union(vb.BBox)
	}
	rec.BBox = bbox

	return rec, nil
}

func parseS3DHead(r *ByteReader, rec *S3DRecord) error {
	major, err := r.ReadUint16LE()
	if err != nil {
		return err
	}
	minor, err := r.ReadUint16LE()
	if err != nil {
		return err
	}
	if major != 1 || minor < 1 || minor > 5 {
		return NewDomainError("s3d head", [2]uint16{major, minor}, "unsupported version %d.%d", major, minor)
	}
	rec.MajorVersion = major
	rec.MinorVersion = minor
	return nil
}

func parseS3DVert(r *ByteReader, rec *S3DRecord) error {
	nbrBlocks, err := r.ReadUint32LE()
	if err != nil {
		return err
	}
	if nbrBlocks > s3dMaxBlocks {
		return NewDomainError("s3d vert", nbrBlocks, "exceeds max block count %d", s3dMaxBlocks)
	}

	rec.VertexBuffers = make([]VertexBuffer, 0, nbrBlocks)
	for i := uint32(0); i < nbrBlocks; i++ {
		flags, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		vertexCount, err := r.ReadUint16LE()
		if err != nil {
			return err
		}

		var format VertexFormat
		var stride int
		if rec.MinorVersion >= 4 {
			rawFormat, err := r.ReadUint32LE()
			if err != nil {
				return err
			}
			format = decodeS3DVertexFormat(rawFormat)
			stride = s3dVertexStride(format)
		} else {
			rawFormat, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			format = decodeS3DVertexFormat(uint32(rawFormat))
			strideField, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			stride = int(strideField)
		}

		vb := VertexBuffer{Flags: flags, Format: format, Stride: stride, BBox: newBoundingBox()}
		for v := uint16(0); v < vertexCount; v++ {
			vertex, err := readS3DVertex(r, format, stride)
			if err != nil {
				return err
			}
			vb.BBox.include(vertex.Position)
			vb.Verts = append(vb.Verts, vertex)
		}
		rec.VertexBuffers = append(rec.VertexBuffers, vb)
	}
	return nil
}

func readS3DVertex(r *ByteReader, format VertexFormat, stride int) (Vertex, error) {
	start := r.Offset()
	var v Vertex
	for i := 0; i < 3; i++ {
		f, err := r.ReadFloat32()
		if err != nil {
			return Vertex{}, err
		}
		v.Position[i] = f
	}
	if format.Colors > 0 {
		bgra, err := r.ReadBytes(4)
		if err != nil {
			return Vertex{}, err
		}
		v.HasColor = true
		v.Color = [4]float32{
			float32(bgra[2]) / 255, // R
			float32(bgra[1]) / 255, // G
			float32(bgra[0]) / 255, // B
			float32(bgra[3]) / 255, // A
		}
	}
	if format.Texs > 0 {
		u, err := r.ReadFloat32()
		if err != nil {
			return Vertex{}, err
		}
		vv, err := r.ReadFloat32()
		if err != nil {
			return Vertex{}, err
		}
		v.UV = [2]float32{u, vv}
	}
	if format.Texs > 1 {
		u2, err := r.ReadFloat32()
		if err != nil {
			return Vertex{}, err
		}
		v2, err := r.ReadFloat32()
		if err != nil {
			return Vertex{}, err
		}
		v.UV2 = [2]float32{u2, v2}
	}

	consumed := r.Offset() - start
	if consumed < stride {
		if err := r.Skip(stride - consumed); err != nil {
			return Vertex{}, err
		}
	}
	return v, nil
}

func parseS3DIndx(r *ByteReader, rec *S3DRecord) error {
	nbrBlocks, err := r.ReadUint32LE()
	if err != nil {
		return err
	}
	if nbrBlocks > s3dMaxBlocks {
		return NewDomainError("s3d indx", nbrBlocks, "exceeds max block count %d", s3dMaxBlocks)
	}
	rec.IndexBuffers = make([]IndexBuffer, 0, nbrBlocks)
	for i := uint32(0); i < nbrBlocks; i++ {
		flags, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		stride, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		count, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		ib := IndexBuffer{Flags: flags, Stride: stride, Indices: make([]uint16, 0, count)}
		for j := uint16(0); j < count; j++ {
			idx, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			ib.Indices = append(ib.Indices, idx)
		}
		rec.IndexBuffers = append(rec.IndexBuffers, ib)
	}
	return nil
}

func parseS3DPrim(r *ByteReader, rec *S3DRecord) error {
	nbrBlocks, err := r.ReadUint32LE()
	if err != nil {
		return err
	}
	if nbrBlocks > s3dMaxBlocks {
		return NewDomainError("s3d prim", nbrBlocks, "exceeds max block count %d", s3dMaxBlocks)
	}
	rec.PrimitiveBlocks = make([]PrimitiveBlock, 0, nbrBlocks)
	for i := uint32(0); i < nbrBlocks; i++ {
		nbrPrims, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		block := PrimitiveBlock{Prims: make([]Primitive, 0, nbrPrims)}
		for p := uint16(0); p < nbrPrims; p++ {
			typ, err := r.ReadUint32LE()
			if err != nil {
				return err
			}
			first, err := r.ReadUint32LE()
			if err != nil {
				return err
			}
			length, err := r.ReadUint32LE()
			if err != nil {
				return err
			}
			block.Prims = append(block.Prims, Primitive{Type: typ, First: first, Length: length})
		}
		rec.PrimitiveBlocks = append(rec.PrimitiveBlocks, block)
	}
	return nil
}

func parseS3DMats(r *ByteReader, rec *S3DRecord) error {
	nbrBlocks, err := r.ReadUint32LE()
	if err != nil {
		return err
	}
	if nbrBlocks > s3dMaxBlocks {
		return NewDomainError("s3d mats", nbrBlocks, "exceeds max block count %d", s3dMaxBlocks)
	}
	rec.Materials = make([]Material, 0, nbrBlocks)
	for i := uint32(0); i < nbrBlocks; i++ {
		flags, err := r.ReadUint32LE()
		if err != nil {
			return err
		}
		alphaFunc, err := r.ReadUint8()
		if err != nil {
			return err
		}
		depthFunc, err := r.ReadUint8()
		if err != nil {
			return err
		}
		srcBlend, err := r.ReadUint8()
		if err != nil {
			return err
		}
		dstBlend, err := r.ReadUint8()
		if err != nil {
			return err
		}
		alphaThreshold, err := r.ReadUint16LE()
		if err != nil {
			return err
		}
		materialClass, err := r.ReadUint32LE()
		if err != nil {
			return err
		}
		if _, err := r.ReadUint8(); err != nil { // reserved
			return err
		}
		textureCount, err := r.ReadUint8()
		if err != nil {
			return err
		}

		mat := Material{
			Flags: flags, AlphaFunc: alphaFunc, DepthFunc: depthFunc,
			SrcBlend: srcBlend, DstBlend: dstBlend,
			AlphaThreshold: float32(alphaThreshold) / 65535.0,
			MaterialClass:  materialClass,
		}
		for t := uint8(0); t < textureCount; t++ {
			tex, err := parseS3DTextureRef(r, rec.MinorVersion)
			if err != nil {
				return err
			}
			mat.Textures = append(mat.Textures, tex)
		}
		rec.Materials = append(rec.Materials, mat)
	}
	return nil
}

func parseS3DTextureRef(r *ByteReader, minorVersion uint16) (TextureRef, error) {
	textureID, err := r.ReadUint32LE()
	if err != nil {
		return TextureRef{}, err
	}
	wrapS, err := r.ReadUint8()
	if err != nil {
		return TextureRef{}, err
	}
	wrapT, err := r.ReadUint8()
	if err != nil {
		return TextureRef{}, err
	}
	var magFilter, minFilter uint8
	if minorVersion == 5 {
		magFilter, err = r.ReadUint8()
		if err != nil {
			return TextureRef{}, err
		}
		minFilter, err = r.ReadUint8()
		if err != nil {
			return TextureRef{}, err
		}
	}
	animRate, err := r.ReadUint16LE()
	if err != nil {
		return TextureRef{}, err
	}
	animMode, err := r.ReadUint16LE()
	if err != nil {
		return TextureRef{}, err
	}
	animNameLen, err := r.ReadUint8()
	if err != nil {
		return TextureRef{}, err
	}
	name, err := r.ReadString(int(animNameLen))
	if err != nil {
		return TextureRef{}, err
	}
	return TextureRef{
		TextureID: textureID, WrapS: wrapS, WrapT: wrapT,
		MagFilter: magFilter, MinFilter: minFilter,
		AnimRate: animRate, AnimMode: animMode, AnimName: name,
	}, nil
}

func parseS3DAnim(r *ByteReader, rec *S3DRecord) error {
	frameCount, err := r.ReadUint16LE()
	if err != nil {
		return err
	}
	frameRate, err := r.ReadUint16LE()
	if err != nil {
		return err
	}
	animMode, err := r.ReadUint16LE()
	if err != nil {
		return err
	}
	flags, err := r.ReadUint32LE()
	if err != nil {
		return err
	}
	displacement, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	nbrMeshes, err := r.ReadUint16LE()
	if err != nil {
		return err
	}

	anim := Animation{
		FrameCount: frameCount, FrameRate: frameRate, AnimMode: animMode,
		Flags: flags, Displacement: displacement,
	}

	for m := uint16(0); m < nbrMeshes; m++ {
		nameLen, err := r.ReadUint8()
		if err != nil {
			return err
		}
		flags, err := r.ReadUint8()
		if err != nil {
			return err
		}
		nameBytes, err := r.ReadBytes(int(nameLen))
		if err != nil {
			return err
		}
		if nul := indexByte(nameBytes, 0); nul >= 0 {
			nameBytes = nameBytes[:nul]
		}

		mesh := AnimMesh{Name: string(nameBytes), Flags: flags}
		for f := uint16(0); f < frameCount; f++ {
			vb, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			ib, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			pb, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			mb, err := r.ReadUint16LE()
			if err != nil {
				return err
			}
			mesh.Frames = append(mesh.Frames, AnimFrame{VertexBlock: vb, IndexBlock: ib, PrimitiveBlock: pb, MaterialBlock: mb})
		}
		anim.Meshes = append(anim.Meshes, mesh)
	}

	rec.Animation = anim
	return nil
}
