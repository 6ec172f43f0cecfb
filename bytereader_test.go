package dbpf

import (
	"errors"
	"testing"
)

func TestByteReaderScalarReads(t *testing.T) {
	t.Parallel()

	buf := []byte{
		0x01,                   // uint8
		0x34, 0x12,             // uint16 LE -> 0x1234
		0x78, 0x56, 0x34, 0x12, // uint32 LE -> 0x12345678
	}
	r := NewByteReader(buf)

	u8, err := r.ReadUint8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("ReadUint8() = %v, %v; want 0x01, nil", u8, err)
	}
	u16, err := r.ReadUint16LE()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadUint16LE() = %#x, %v; want 0x1234, nil", u16, err)
	}
	u32v, err := r.ReadUint32LE()
	if err != nil || u32v != 0x12345678 {
		t.Fatalf("ReadUint32LE() = %#x, %v; want 0x12345678, nil", u32v, err)
	}
	if !r.AtEnd() {
		t.Fatalf("AtEnd() = false, want true after consuming whole buffer")
	}
}

func TestByteReaderUnderrun(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{0x01, 0x02})
	if _, err := r.ReadUint32LE(); err == nil {
		t.Fatal("ReadUint32LE() on a 2-byte buffer: want error, got nil")
	}
	var be *BoundsError
	if _, err := r.ReadUint32LE(); !errors.As(err, &be) {
		t.Fatalf("expected *BoundsError, got %T", err)
	}
}

func TestByteReaderSeekAndSkip(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{0, 1, 2, 3, 4, 5})
	if err := r.Seek(3); err != nil {
		t.Fatalf("Seek(3): %v", err)
	}
	b, err := r.ReadUint8()
	if err != nil || b != 3 {
		t.Fatalf("after Seek(3), ReadUint8() = %v, %v; want 3, nil", b, err)
	}
	if err := r.Skip(1); err != nil {
		t.Fatalf("Skip(1): %v", err)
	}
	b, err = r.ReadUint8()
	if err != nil || b != 5 {
		t.Fatalf("after Skip(1), ReadUint8() = %v, %v; want 5, nil", b, err)
	}

	if err := r.Seek(100); err == nil {
		t.Fatal("Seek(100) past end: want error, got nil")
	}
}

func TestByteReaderReadUint24BE(t *testing.T) {
	t.Parallel()

	r := NewByteReader([]byte{0x12, 0x34, 0x56})
	v, err := r.ReadUint24BE()
	if err != nil {
		t.Fatalf("ReadUint24BE(): %v", err)
	}
	if want := uint32(0x123456); v != want {
		t.Fatalf("ReadUint24BE() = %#x, want %#x", v, want)
	}
}
