// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

// QFSMagic is the two-byte marker (after masking byte 0's low bit) that
// identifies a QFS-compressed payload.
const QFSMagic = 0x10FB

// IsQFSCompressed reports whether buf starts with a QFS header.
//
// Grounded on _examples/original_source/src/QFSDecompressor.cpp
// (Decompressor::IsQFSCompressed) and spec.md §4.2.
func IsQFSCompressed(buf []byte) bool {
	if len(buf) < 5 {
		return false
	}
	return (uint16(buf[0]&0xFE)<<8 | uint16(buf[1])) == QFSMagic
}

// QFSUncompressedSize returns the declared uncompressed size from a QFS
// header, or 0 if buf is not QFS-compressed.
func QFSUncompressedSize(buf []byte) uint32 {
	if !IsQFSCompressed(buf) {
		return 0
	}
	return uint32(buf[2])<<16 | uint32(buf[3])<<8 | uint32(buf[4])
}

// QFSDecompress decodes a QFS-compressed payload. The teacher's own
// `github.com/woozymasta/lzss` dependency is a generic LZSS bitstream codec
// and shares no framing with QFS's bespoke 4-class control-byte grammar
// (see DESIGN.md); this is written directly against the algorithm,
// byte-for-byte matching
// _examples/original_source/src/QFSDecompressor.cpp::DecompressInternal.
func QFSDecompress(input []byte) ([]byte, error) {
	if len(input) < 5 {
		return nil, NewFormatError("qfs", "payload too small (%d bytes)", len(input))
	}
	if !IsQFSCompressed(input) {
		magic := uint16(input[0]&0xFE)<<8 | uint16(input[1])
		return nil, NewFormatError("qfs", "magic mismatch: expected 0x%04X, got 0x%04X", QFSMagic, magic)
	}

	uncompressedSize := QFSUncompressedSize(input)
	output := make([]byte, uncompressedSize)
	if uncompressedSize == 0 {
		return output, nil
	}

	if err := qfsDecompressInto(input, output); err != nil {
		return nil, err
	}
	return output, nil
}

func qfsOffsetCopy(buf []byte, destPos, offset, length int) error {
	if offset <= 0 || offset > destPos {
		return NewFormatError("qfs", "invalid offset %d at dest %d", offset, destPos)
	}
	srcPos := destPos - offset
	for i := 0; i < length; i++ {
		buf[destPos+i] = buf[srcPos+i]
	}
	return nil
}

func qfsDecompressInto(input, output []byte) error {
	inputSize := len(input)
	outputSize := len(output)

	inPos := 5
	if input[0]&0x01 != 0 {
		inPos = 8
	}
	outPos := 0
	control1 := 0

	for inPos < inputSize && control1 < 0xFC {
		control1 = int(input[inPos])
		inPos++

		switch {
		case control1 <= 0x7F:
			if inPos >= inputSize {
				return NewFormatError("qfs", "truncated in control1<=0x7F block")
			}
			control2 := int(input[inPos])
			inPos++

			literalLen := control1 & 0x03
			if inPos+literalLen > inputSize {
				return NewFormatError("qfs", "literal overruns input (short block)")
			}
			if outPos+literalLen > outputSize {
				return NewFormatError("qfs", "literal overruns output (short block)")
			}
			copy(output[outPos:outPos+literalLen], input[inPos:inPos+literalLen])
			outPos += literalLen
			inPos += literalLen

			offset := ((control1 & 0x60) << 3) + control2 + 1
			copyLen := ((control1 & 0x1C) >> 2) + 3
			if outPos+copyLen > outputSize {
				return NewFormatError("qfs", "copy overruns output (short block)")
			}
			if err := qfsOffsetCopy(output, outPos, offset, copyLen); err != nil {
				return err
			}
			outPos += copyLen

		case control1 <= 0xBF:
			if inPos+1 >= inputSize {
				return NewFormatError("qfs", "truncated in control1<=0xBF block")
			}
			control2 := int(input[inPos])
			inPos++
			control3 := int(input[inPos])
			inPos++

			literalLen := (control2 >> 6) & 0x03
			if inPos+literalLen > inputSize {
				return NewFormatError("qfs", "literal overruns input (mid block)")
			}
			if outPos+literalLen > outputSize {
				return NewFormatError("qfs", "literal overruns output (mid block)")
			}
			copy(output[outPos:outPos+literalLen], input[inPos:inPos+literalLen])
			outPos += literalLen
			inPos += literalLen

			offset := ((control2 & 0x3F) << 8) + control3 + 1
			copyLen := (control1 & 0x3F) + 4
			if outPos+copyLen > outputSize {
				return NewFormatError("qfs", "copy overruns output (mid block)")
			}
			if err := qfsOffsetCopy(output, outPos, offset, copyLen); err != nil {
				return err
			}
			outPos += copyLen

		case control1 <= 0xDF:
			if inPos+2 >= inputSize {
				return NewFormatError("qfs", "truncated in control1<=0xDF block")
			}
			control2 := int(input[inPos])
			inPos++
			control3 := int(input[inPos])
			inPos++
			control4 := int(input[inPos])
			inPos++

			literalLen := control1 & 0x03
			if inPos+literalLen > inputSize {
				return NewFormatError("qfs", "literal overruns input (long block)")
			}
			if outPos+literalLen > outputSize {
				return NewFormatError("qfs", "literal overruns output (long block)")
			}
			copy(output[outPos:outPos+literalLen], input[inPos:inPos+literalLen])
			outPos += literalLen
			inPos += literalLen

			offset := ((control1 & 0x10) << 12) + (control2 << 8) + control3 + 1
			copyLen := ((control1 & 0x0C) << 6) + control4 + 5
			if outPos+copyLen > outputSize {
				return NewFormatError("qfs", "copy overruns output (long block)")
			}
			if err := qfsOffsetCopy(output, outPos, offset, copyLen); err != nil {
				return err
			}
			outPos += copyLen

		case control1 <= 0xFB:
			literalLen := ((control1 & 0x1F) << 2) + 4
			if inPos+literalLen > inputSize {
				return NewFormatError("qfs", "literal overruns input (raw block)")
			}
			if outPos+literalLen > outputSize {
				return NewFormatError("qfs", "literal overruns output (raw block)")
			}
			copy(output[outPos:outPos+literalLen], input[inPos:inPos+literalLen])
			outPos += literalLen
			inPos += literalLen

		default: // 0xFC..0xFF: terminator
			literalLen := control1 & 0x03
			if inPos+literalLen > inputSize {
				return NewFormatError("qfs", "literal overruns input (terminator block)")
			}
			if outPos+literalLen > outputSize {
				return NewFormatError("qfs", "literal overruns output (terminator block)")
			}
			copy(output[outPos:outPos+literalLen], input[inPos:inPos+literalLen])
			outPos += literalLen
			inPos += literalLen
		}
	}

	if outPos != outputSize {
		return NewFormatError("qfs", "decompression wrote %d bytes but expected %d", outPos, outputSize)
	}
	return nil
}
