package dbpf

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadReaderOptionsDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.SetDefault("log_level", "debug")

	opts, err := LoadReaderOptions(v)
	if err != nil {
		t.Fatalf("LoadReaderOptions: %v", err)
	}
	if opts.Logger == nil {
		t.Fatal("Logger = nil, want non-nil")
	}
}

func TestParseRUL0WithOptionsCustomNetworkVocabulary(t *testing.T) {
	t.Parallel()

	src := &stubRUL0Source{triples: []triple{
		{"highwayintersectioninfo_0x00000001", "CheckType", "G-widget:0x1"},
	}}

	custom := map[string]NetworkType{"widget": NetworkMonorail}
	rec, err := ParseRUL0WithOptions(nil, RUL0Options{Source: src, NetworkTypes: custom})
	if err != nil {
		t.Fatalf("ParseRUL0WithOptions: %v", err)
	}
	p := rec.Pieces[1]
	if len(p.CheckTypes) != 1 || p.CheckTypes[0].Networks[0].Type != NetworkMonorail {
		t.Fatalf("CheckTypes = %+v, want Networks[0].Type = NetworkMonorail", p.CheckTypes)
	}
}

func TestParseRUL0WithOptionsFallsBackToDefaultVocabulary(t *testing.T) {
	t.Parallel()

	src := &stubRUL0Source{triples: []triple{
		{"highwayintersectioninfo_0x00000001", "CheckType", "G-road:0x1"},
	}}

	rec, err := ParseRUL0WithOptions(nil, RUL0Options{Source: src})
	if err != nil {
		t.Fatalf("ParseRUL0WithOptions: %v", err)
	}
	if rec.Pieces[1].CheckTypes[0].Networks[0].Type != NetworkRoad {
		t.Fatalf("Networks[0].Type = %v, want NetworkRoad", rec.Pieces[1].CheckTypes[0].Networks[0].Type)
	}
}

func TestConvertToRGBA8WithOptionsBGRA8(t *testing.T) {
	t.Parallel()

	b := FSHBitmap{Code: FSHFormatBGRA8, Width: 1, Height: 1, Data: []byte{0x33, 0x22, 0x11, 0x44}}
	got, err := ConvertToRGBA8WithOptions(b, FSHOptions{})
	if err != nil {
		t.Fatalf("ConvertToRGBA8WithOptions: %v", err)
	}
	want := []byte{0x11, 0x22, 0x33, 0x44}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ConvertToRGBA8WithOptions() = % X, want % X", got, want)
		}
	}
}
