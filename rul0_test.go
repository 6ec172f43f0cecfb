package dbpf

import "testing"

type triple struct{ section, key, value string }

type stubRUL0Source struct {
	triples []triple
}

func (s *stubRUL0Source) Parse(_ []byte, onTriple func(section, key, value string) bool) error {
	for _, t := range s.triples {
		if !onTriple(t.section, t.key, t.value) {
			return NewFormatError("stub rul0 source", "onTriple rejected %s/%s=%s", t.section, t.key, t.value)
		}
	}
	return nil
}

func TestParseRUL0OrderingAndPieceBasics(t *testing.T) {
	t.Parallel()

	src := &stubRUL0Source{triples: []triple{
		{"", "RotationRing", "0x1,0x2"},
		{"", "AddTypes", "0x3,0x4"},
		{"highwayintersectioninfo_0x00000001", "CellLayout", "AB"},
		{"highwayintersectioninfo_0x00000001", "CellLayout", "CD"},
		{"highwayintersectioninfo_0x00000001", "ConsLayout", "11"},
		{"highwayintersectioninfo_0x00000001", "ConsLayout", "22"},
		{"highwayintersectioninfo_0x00000001", "CheckType", "G-road:0x1"},
		{"highwayintersectioninfo_0x00000001", "Costs", "5"},
	}}

	rec, err := ParseRUL0(nil, src)
	if err != nil {
		t.Fatalf("ParseRUL0: %v", err)
	}

	if len(rec.Orderings) != 1 {
		t.Fatalf("len(Orderings) = %d, want 1", len(rec.Orderings))
	}
	o := rec.Orderings[0]
	wantRing := []uint32{1, 2}
	if len(o.RotationRing) != 2 || o.RotationRing[0] != wantRing[0] || o.RotationRing[1] != wantRing[1] {
		t.Fatalf("RotationRing = %v, want %v", o.RotationRing, wantRing)
	}
	if len(o.AddTypeRings) != 1 || len(o.AddTypeRings[0]) != 2 {
		t.Fatalf("AddTypeRings = %v, want one ring of 2", o.AddTypeRings)
	}

	p, ok := rec.Pieces[1]
	if !ok {
		t.Fatal("Pieces[1] not found")
	}
	if len(p.CellLayout) != 2 || p.CellLayout[0] != "AB" || p.CellLayout[1] != "CD" {
		t.Fatalf("CellLayout = %v, want [AB CD]", p.CellLayout)
	}
	if p.Costs != 5 {
		t.Fatalf("Costs = %d, want 5", p.Costs)
	}
	if len(p.CheckTypes) != 1 {
		t.Fatalf("len(CheckTypes) = %d, want 1", len(p.CheckTypes))
	}
	ct := p.CheckTypes[0]
	if ct.Glyph != 'G' || len(ct.Networks) != 1 {
		t.Fatalf("CheckTypes[0] = %+v, want Glyph=G with 1 network", ct)
	}
	n := ct.Networks[0]
	if n.Type != NetworkRoad || n.RuleFlagByte != 1 || n.HexMask != 1 {
		t.Fatalf("Networks[0] = %+v, want Type=Road RuleFlagByte=1 HexMask=1", n)
	}

	ordering, found := rec.OrderingFor(1)
	if !found || ordering != &rec.Orderings[0] {
		t.Fatal("OrderingFor(1): expected to find the first ordering")
	}
}

func TestParseRUL0CopyFromAppliesRotateTransform(t *testing.T) {
	t.Parallel()

	src := &stubRUL0Source{triples: []triple{
		{"highwayintersectioninfo_0x00000001", "CellLayout", "AB"},
		{"highwayintersectioninfo_0x00000001", "CellLayout", "CD"},
		{"highwayintersectioninfo_0x00000002", "CopyFrom", "0x1"},
		{"highwayintersectioninfo_0x00000002", "Rotate", "1"},
	}}

	rec, err := ParseRUL0(nil, src)
	if err != nil {
		t.Fatalf("ParseRUL0: %v", err)
	}

	p2, ok := rec.Pieces[2]
	if !ok {
		t.Fatal("Pieces[2] not found")
	}
	wantLayout := []string{"CA", "DB"}
	if len(p2.CellLayout) != 2 || p2.CellLayout[0] != wantLayout[0] || p2.CellLayout[1] != wantLayout[1] {
		t.Fatalf("CellLayout = %v, want %v", p2.CellLayout, wantLayout)
	}
	if p2.CopyFrom != 0 || p2.RotateCount != 0 {
		t.Fatalf("declarative fields not cleared: CopyFrom=%d RotateCount=%d", p2.CopyFrom, p2.RotateCount)
	}
	if p2.AppliedTransform.CopyFrom != 1 || p2.AppliedTransform.Rotate != 1 {
		t.Fatalf("AppliedTransform = %+v, want CopyFrom=1 Rotate=1", p2.AppliedTransform)
	}
}

func TestParseRUL0RejectsUnknownOrderingKey(t *testing.T) {
	t.Parallel()

	src := &stubRUL0Source{triples: []triple{
		{"", "NotARealKey", "whatever"},
	}}
	if _, err := ParseRUL0(nil, src); err == nil {
		t.Fatal("ParseRUL0 with unknown Ordering key: want error, got nil")
	}
}

func TestParseRUL0RejectsNilSource(t *testing.T) {
	t.Parallel()

	if _, err := ParseRUL0(nil, nil); err == nil {
		t.Fatal("ParseRUL0 with nil source: want error, got nil")
	}
}

func TestRotateGrid90CWMatchesWorkedExample(t *testing.T) {
	t.Parallel()

	got := rotateGrid90CW([]string{"AB", "CD"})
	want := []string{"CA", "DB"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("rotateGrid90CW([AB CD]) = %v, want %v", got, want)
	}
}

func TestRotateGridFourTimesIsIdentity(t *testing.T) {
	t.Parallel()

	grid := []string{"ABC", "DEF"}
	got := rotateGrid(grid, 4)
	want := normalizeGrid(grid)
	if len(got) != len(want) {
		t.Fatalf("rotateGrid(grid, 4) row count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotateGrid(grid, 4)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransposeOneWayDirPermutation(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want int }{
		{0, 6}, {6, 0}, {1, 5}, {5, 1}, {2, 4}, {4, 2}, {3, 3}, {7, 7}, {8, 8},
	}
	for _, tc := range cases {
		if got := transposeOneWayDir(tc.in); got != tc.want {
			t.Fatalf("transposeOneWayDir(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseRUL0WithINIv1Source(t *testing.T) {
	t.Parallel()

	text := "[Ordering]\n" +
		"RotationRing=0x1\n" +
		"\n" +
		"[HighwayIntersectionInfo_0x00000001]\n" +
		"CellLayout=AB\n" +
		"Costs=7\n"

	rec, err := ParseRUL0([]byte(text), NewINIv1Source())
	if err != nil {
		t.Fatalf("ParseRUL0: %v", err)
	}
	if len(rec.Orderings) != 1 || len(rec.Orderings[0].RotationRing) != 1 || rec.Orderings[0].RotationRing[0] != 1 {
		t.Fatalf("Orderings = %+v, want one ring [1]", rec.Orderings)
	}
	p, ok := rec.Pieces[1]
	if !ok {
		t.Fatal("Pieces[1] not found")
	}
	if len(p.CellLayout) != 1 || p.CellLayout[0] != "AB" {
		t.Fatalf("CellLayout = %v, want [AB]", p.CellLayout)
	}
	if p.Costs != 7 {
		t.Fatalf("Costs = %d, want 7", p.Costs)
	}
}
