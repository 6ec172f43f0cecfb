package dbpf

import (
	"sort"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestCatalogDescribeKnownKeys(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	cases := []struct {
		name string
		key  Key
		want string
	}{
		{"directory", DirectoryKey, "Directory"},
		{"rul0", RUL0Key, "RUL0 (Intersection Ordering)"},
		{"exemplar road", Key{Type: 0x6534284a, Group: 0x2821ed93, Instance: 0x1}, "Exemplar (Road)"},
		{"exemplar generic", Key{Type: 0x6534284a, Group: 0xdeadbeef, Instance: 0x1}, "Exemplar"},
		{"unknown", Key{Type: 0x12345678, Group: 1, Instance: 1}, "Unknown"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Describe(tc.key); got != tc.want {
				t.Fatalf("Describe(%+v) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestCatalogMaskForLabel(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	mask, err := c.MaskForLabel("Exemplar")
	if err != nil {
		t.Fatalf("MaskForLabel(Exemplar): %v", err)
	}
	if mask.Type == nil || *mask.Type != 0x6534284a {
		t.Fatalf("MaskForLabel(Exemplar) = %+v, want Type=0x6534284a", mask)
	}

	if _, err := c.MaskForLabel("NoSuchLabel"); err == nil {
		t.Fatal("MaskForLabel on unknown label: want error, got nil")
	}
}

func TestMaskMatches(t *testing.T) {
	t.Parallel()

	key := Key{Type: 1, Group: 2, Instance: 3}
	cases := []struct {
		name string
		mask Mask
		want bool
	}{
		{"empty mask matches anything", Mask{}, true},
		{"type match", Mask{Type: u32(1)}, true},
		{"type mismatch", Mask{Type: u32(99)}, false},
		{"all fields match", Mask{Type: u32(1), Group: u32(2), Instance: u32(3)}, true},
		{"one field mismatches", Mask{Type: u32(1), Group: u32(99)}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.mask.Matches(key); got != tc.want {
				t.Fatalf("Matches(%+v) = %v, want %v", key, got, tc.want)
			}
		})
	}
}

func TestCatalogLabelsByGlob(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	labels, err := c.LabelsByGlob([]pathrules.Rule{
		{Action: pathrules.ActionInclude, Pattern: "Exemplar (*Road*)"},
	}, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		t.Fatalf("LabelsByGlob: %v", err)
	}
	sort.Strings(labels)
	want := []string{"Exemplar (Dirt Road)", "Exemplar (One-Way Road)", "Exemplar (Road)"}
	if len(labels) != len(want) {
		t.Fatalf("LabelsByGlob = %v, want %v", labels, want)
	}
	for i, l := range labels {
		if l != want[i] {
			t.Fatalf("LabelsByGlob[%d] = %q, want %q", i, l, want[i])
		}
	}

	if _, err := c.LabelsByGlob([]pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*"},
	}, pathrules.MatcherOptions{DefaultAction: pathrules.ActionExclude}); err == nil {
		t.Fatal("LabelsByGlob with an invalid rule action: want error, got nil")
	}
}

func TestKeyLess(t *testing.T) {
	t.Parallel()

	a := Key{Type: 1, Group: 1, Instance: 1}
	b := Key{Type: 1, Group: 1, Instance: 2}
	if !a.Less(b) {
		t.Fatal("Less: expected a < b by Instance")
	}
	if b.Less(a) {
		t.Fatal("Less: expected b not < a")
	}
}
