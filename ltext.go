// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

package dbpf

import (
	"unicode/utf16"
	"unicode/utf8"
)

// ltextControlWord is the control field value a well-formed LText header
// must carry (spec.md §4.7).
const ltextControlWord = 0x1000

// LTextRecord is a UTF-16 code-unit sequence (may contain surrogate
// pairs), the decoded payload of an LText entry.
type LTextRecord struct {
	Text []uint16
}

// ToUTF8 converts the record to UTF-8, replacing lone surrogates with
// U+FFFD, matching original_source/LTextReader.cpp's EncodeUtf8.
func (r LTextRecord) ToUTF8() string {
	runes := utf16.Decode(r.Text)
	return string(runes)
}

// ParseLText decodes a UTF-16 localized-string container. If the
// structured header is present and consistent (charCount + control ==
// 0x1000 + matching payload length), the payload is read as UTF-16 code
// units in archive byte order. Otherwise — the single documented
// exception to "no recovery" in spec.md §7 — it falls back to truncating
// at the first null byte and decoding the remainder as lossy UTF-8.
//
// Grounded on original_source/src/LTextReader.cpp::Parse/ParseFallback.
func ParseLText(buf []byte) (LTextRecord, error) {
	if len(buf) == 0 {
		return LTextRecord{}, NewFormatError("ltext", "payload is empty")
	}
	if len(buf) < 4 {
		return ltextFallback(buf)
	}

	r := NewByteReader(buf)
	charCount, _ := r.ReadUint16LE()
	control, _ := r.ReadUint16LE()

	payloadBytes := len(buf) - 4
	expectedBytes := int(charCount) * 2
	hasControl := control == ltextControlWord
	lengthMatches := payloadBytes == expectedBytes && payloadBytes%2 == 0

	if !hasControl || !lengthMatches {
		rec, err := ltextFallback(buf)
		if err != nil {
			return LTextRecord{}, NewFormatError("ltext", "invalid header and fallback failed: %v", err)
		}
		return rec, nil
	}

	text := make([]uint16, charCount)
	payload := buf[4:]
	for i := 0; i < int(charCount); i++ {
		text[i] = uint16(payload[2*i]) | uint16(payload[2*i+1])<<8
	}
	return LTextRecord{Text: text}, nil
}

func ltextFallback(buf []byte) (LTextRecord, error) {
	raw := buf
	if i := indexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) == 0 {
		return LTextRecord{}, NewFormatError("ltext", "fallback payload is empty")
	}

	var runes []rune
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		runes = append(runes, r)
		raw = raw[size:]
	}
	return LTextRecord{Text: utf16.Encode(runes)}, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
