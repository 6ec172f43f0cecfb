package dbpf

import "testing"

func TestParseExemplarBinaryMixedProperties(t *testing.T) {
	t.Parallel()

	var buf []byte
	buf = append(buf, 'E', 'Q', 'Z', 'B', '1', '#', '#', '#') // signature
	buf = append(buf, 0x78, 0x56, 0x34, 0x12)                 // parent type
	buf = append(buf, 0x11, 0x11, 0x11, 0x11)                 // parent group
	buf = append(buf, 0x22, 0x22, 0x22, 0x22)                 // parent instance
	buf = append(buf, 0x02, 0x00, 0x00, 0x00)                 // property count = 2

	// Property 1: scalar Uint32, id=1, value=42.
	buf = append(buf, 0x01, 0x00, 0x00, 0x00) // id
	buf = append(buf, 0x00, 0x03)             // type tag 0x0300 -> Uint32
	buf = append(buf, 0x00, 0x00)             // key type 0x0000 -> scalar
	buf = append(buf, 0x01)                   // reps (unused for numeric scalar)
	buf = append(buf, 0x2A, 0x00, 0x00, 0x00) // value 42

	// Property 2: scalar Bool, id=2, value=true.
	buf = append(buf, 0x02, 0x00, 0x00, 0x00) // id
	buf = append(buf, 0x00, 0x0B)             // type tag 0x0B00 -> Bool
	buf = append(buf, 0x00, 0x00)             // key type 0x0000 -> scalar
	buf = append(buf, 0x01)                   // reps (unused for bool)
	buf = append(buf, 0x01)                   // true

	rec, err := ParseExemplar(buf)
	if err != nil {
		t.Fatalf("ParseExemplar: %v", err)
	}
	if rec.IsCohort {
		t.Fatal("IsCohort = true, want false for 'E' signature")
	}
	wantParent := Key{Type: 0x12345678, Group: 0x11111111, Instance: 0x22222222}
	if rec.Parent != wantParent {
		t.Fatalf("Parent = %+v, want %+v", rec.Parent, wantParent)
	}
	if len(rec.Properties) != 2 {
		t.Fatalf("len(Properties) = %d, want 2", len(rec.Properties))
	}

	p1, ok := rec.FindProperty(1)
	if !ok {
		t.Fatal("FindProperty(1): not found")
	}
	v, err := p1.Int64(0)
	if err != nil || v != 42 {
		t.Fatalf("property 1 Int64(0) = %v, %v; want 42, nil", v, err)
	}

	p2, ok := rec.FindProperty(2)
	if !ok {
		t.Fatal("FindProperty(2): not found")
	}
	b, err := p2.BoolValue()
	if err != nil || !b {
		t.Fatalf("property 2 BoolValue() = %v, %v; want true, nil", b, err)
	}
}

func TestParseExemplarTextSignedHexProperty(t *testing.T) {
	t.Parallel()

	src := "EQZT1###\n" +
		"ParentCohort=Key:{0x00000001,0x00000002,0x00000003}\n" +
		"PropCount=1\n" +
		`0x00000010:{"SignedProp"}=Sint32:0:{0xFFFFFFFF}` + "\n"

	rec, err := ParseExemplar([]byte(src))
	if err != nil {
		t.Fatalf("ParseExemplar: %v", err)
	}
	if !rec.IsText {
		t.Fatal("IsText = false, want true")
	}
	wantParent := Key{Type: 0x3, Group: 0x1, Instance: 0x2}
	if rec.Parent != wantParent {
		t.Fatalf("Parent = %+v, want %+v", rec.Parent, wantParent)
	}
	if len(rec.Properties) != 1 {
		t.Fatalf("len(Properties) = %d, want 1", len(rec.Properties))
	}

	prop := rec.Properties[0]
	if prop.ID != 0x10 {
		t.Fatalf("property ID = %#x, want 0x10", prop.ID)
	}
	v, err := prop.Int64(0)
	if err != nil {
		t.Fatalf("Int64(0): %v", err)
	}
	if v != -1 {
		t.Fatalf("0xFFFFFFFF as Sint32 = %d, want -1", v)
	}
}

func TestParseExemplarRejectsBadSignature(t *testing.T) {
	t.Parallel()

	if _, err := ParseExemplar([]byte("XQZB1###")); err == nil {
		t.Fatal("ParseExemplar with bad signature byte 0: want error, got nil")
	}
	if _, err := ParseExemplar([]byte("EQZX1###")); err == nil {
		t.Fatal("ParseExemplar with bad dialect byte: want error, got nil")
	}
}

func TestParseIntegerLiteralSignedWidening(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		raw      string
		bitWidth int
		signed   bool
		want     int64
	}{
		{"decimal positive", "42", 32, true, 42},
		{"decimal negative", "-1", 32, true, -1},
		{"hex uint8 unsigned", "0xFF", 8, false, 255},
		{"hex sint8 negative", "0xFF", 8, true, -1},
		{"hex sint32 negative", "0xFFFFFFFF", 32, true, -1},
		{"hex sint32 positive", "0x7FFFFFFF", 32, true, 2147483647},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseIntegerLiteral(tc.raw, tc.bitWidth, tc.signed)
			if err != nil {
				t.Fatalf("parseIntegerLiteral(%q): %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("parseIntegerLiteral(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}
