package dbpf

import "testing"

func TestParseLTextStructuredHeader(t *testing.T) {
	t.Parallel()

	text := "Hi"
	buf := []byte{
		byte(len(text)), 0x00, // charCount = 2
		0x00, 0x10, // control word 0x1000
	}
	for _, r := range text {
		buf = append(buf, byte(r), 0x00)
	}

	rec, err := ParseLText(buf)
	if err != nil {
		t.Fatalf("ParseLText: %v", err)
	}
	if got := rec.ToUTF8(); got != text {
		t.Fatalf("ToUTF8() = %q, want %q", got, text)
	}
}

func TestParseLTextFallbackOnBadHeader(t *testing.T) {
	t.Parallel()

	// Not a structured LText header: arbitrary bytes followed by a null
	// terminator and garbage that should be ignored.
	buf := append([]byte("plain text"), 0x00, 'X', 'Y')

	rec, err := ParseLText(buf)
	if err != nil {
		t.Fatalf("ParseLText: %v", err)
	}
	if got, want := rec.ToUTF8(), "plain text"; got != want {
		t.Fatalf("ToUTF8() = %q, want %q", got, want)
	}
}

func TestParseLTextRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := ParseLText(nil); err == nil {
		t.Fatal("ParseLText(nil): want error, got nil")
	}
}
