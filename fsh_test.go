package dbpf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildSingleEntryFSH(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("SHPI")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // fileSize, unused
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // numEntries
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // dirId, unused

	buf.WriteString("TEST")
	binary.Write(&buf, binary.LittleEndian, uint32(24)) // this entry's offset

	// 16-byte entry header.
	buf.WriteByte(FSHFormatBGRA8) // record code (top bit 0)
	buf.Write([]byte{0, 0, 0})    // blockSize = 0 -> no out-of-band label
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // width
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // height
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // xCenter
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // yCenter
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // xOffset
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // yOffset -> mipCount 0

	buf.Write([]byte{0x33, 0x22, 0x11, 0x44}) // B, G, R, A

	return buf.Bytes()
}

func TestParseFSHSingleEntry(t *testing.T) {
	t.Parallel()

	rec, err := ParseFSH(buildSingleEntryFSH(t))
	if err != nil {
		t.Fatalf("ParseFSH: %v", err)
	}
	if rec.Magic != "SHPI" {
		t.Fatalf("Magic = %q, want SHPI", rec.Magic)
	}
	if len(rec.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(rec.Entries))
	}
	e := rec.Entries[0]
	if e.Name != "TEST" || e.FormatCode != FSHFormatBGRA8 || e.Width != 1 || e.Height != 1 {
		t.Fatalf("entry = %+v, want Name=TEST FormatCode=BGRA8 1x1", e)
	}
	if len(e.Mips) != 1 {
		t.Fatalf("len(Mips) = %d, want 1", len(e.Mips))
	}
}

func TestConvertToRGBA8BGRA8(t *testing.T) {
	t.Parallel()

	rec, err := ParseFSH(buildSingleEntryFSH(t))
	if err != nil {
		t.Fatalf("ParseFSH: %v", err)
	}
	rgba, err := ConvertToRGBA8(rec.Entries[0].Mips[0], nil)
	if err != nil {
		t.Fatalf("ConvertToRGBA8: %v", err)
	}
	want := []byte{0x11, 0x22, 0x33, 0x44}
	if !bytes.Equal(rgba, want) {
		t.Fatalf("ConvertToRGBA8() = % X, want % X", rgba, want)
	}
}

// TestConvertToRGBA8BGRA8MultiPixel exercises spec.md §8 scenario 7: a 2x2
// BGRA image, converted to RGBA8 without truncating after the first pixel.
func TestConvertToRGBA8BGRA8MultiPixel(t *testing.T) {
	t.Parallel()

	b := FSHBitmap{
		Code:   FSHFormatBGRA8,
		Width:  2,
		Height: 2,
		Data: []byte{
			0x00, 0x00, 0xFF, 0xFF,
			0x00, 0xFF, 0x00, 0xFF,
			0xFF, 0x00, 0x00, 0xFF,
			0xFF, 0xFF, 0xFF, 0xFF,
		},
	}
	rgba, err := ConvertToRGBA8(b, nil)
	if err != nil {
		t.Fatalf("ConvertToRGBA8: %v", err)
	}
	if len(rgba) != 4*b.Width*b.Height {
		t.Fatalf("len(rgba) = %d, want %d", len(rgba), 4*b.Width*b.Height)
	}
	want := []byte{
		0xFF, 0x00, 0x00, 0xFF,
		0x00, 0xFF, 0x00, 0xFF,
		0x00, 0x00, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if !bytes.Equal(rgba, want) {
		t.Fatalf("ConvertToRGBA8() = % X, want % X", rgba, want)
	}
}

func TestConvertToRGBA8DXTWithoutDecoderFails(t *testing.T) {
	t.Parallel()

	b := FSHBitmap{Code: FSHFormatDXT1, Width: 4, Height: 4, Data: make([]byte, 8)}
	if _, err := ConvertToRGBA8(b, nil); err == nil {
		t.Fatal("ConvertToRGBA8 DXT1 with nil decoder: want error, got nil")
	}
}

func TestParseFSHRejectsUnknownMagic(t *testing.T) {
	t.Parallel()

	if _, err := ParseFSH([]byte("XXXX")); err == nil {
		t.Fatal("ParseFSH with unrecognized magic: want error, got nil")
	}
}
