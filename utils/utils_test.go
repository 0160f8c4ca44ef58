package utils

import (
	"net/url"
	"path/filepath"
	"testing"
)

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("http://host/a/master.m3u8")
	tests := []struct {
		ref  string
		want string
	}{
		{"media.m3u8", "http://host/a/media.m3u8"},
		{"../b/media.m3u8", "http://host/b/media.m3u8"},
		{"/root.m3u8", "http://host/root.m3u8"},
		{"https://cdn.example/x/key.bin", "https://cdn.example/x/key.bin"},
		{"seg0.ts?token=1", "http://host/a/seg0.ts?token=1"},
	}
	for _, tt := range tests {
		got, err := ResolveURL(base, tt.ref)
		if err != nil {
			t.Fatalf("ResolveURL(%q): %v", tt.ref, err)
		}
		if got.String() != tt.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestResolveURLNilBase(t *testing.T) {
	got, err := ResolveURL(nil, "seg.ts")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "seg.ts" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestOutputName(t *testing.T) {
	got := OutputName("downloads", "Morning Show  Ep 1")
	want := filepath.Join("downloads", "Morning_Show__Ep_1.mp3")
	if got != want {
		t.Fatalf("OutputName = %q, want %q", got, want)
	}
	// "e" + combining acute composes to a single rune.
	if got := OutputName("d", "Cafe\u0301"); got != filepath.Join("d", "Caf\u00e9.mp3") {
		t.Fatalf("expected NFC name, got %q", got)
	}
}

func TestBlockMath(t *testing.T) {
	if Floor0(32, 16) != 16 || Floor0(33, 16) != 32 || Floor0(16, 16) != 0 {
		t.Fatal("unexpected block arithmetic")
	}
	if IsValidUrl("seg.ts") || !IsValidUrl("http://h/seg.ts") {
		t.Fatal("unexpected IsValidUrl")
	}
}
