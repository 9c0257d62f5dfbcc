package ini

import (
	"strings"
	"testing"
)

func TestConfiguration_EncodeRoundTrip(t *testing.T) {
	input := `# engine settings
modules = video, journal
debug

[video]
width = 640
height=480
title = Hello  World
vsync

!journal
path=./data/hap.db
empty=

[video]
width=800
`
	original := mustParse(t, input)

	var buf strings.Builder
	if err := original.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	reloaded := mustParse(t, buf.String())

	if !equalOptions(original.Globals(), reloaded.Globals()) {
		t.Errorf("globals differ: %+v vs %+v", original.Globals(), reloaded.Globals())
	}

	a, b := original.Sections(), reloaded.Sections()
	if len(a) != len(b) {
		t.Fatalf("section count %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name() != b[i].Name() {
			t.Errorf("section %d name %q vs %q", i, a[i].Name(), b[i].Name())
		}
		if !equalOptions(a[i].Options(), b[i].Options()) {
			t.Errorf("section %s options %+v vs %+v", a[i].Name(), a[i].Options(), b[i].Options())
		}
	}
}

func TestConfiguration_EncodeCanonical(t *testing.T) {
	cfg := mustParse(t, "debug\n[video]\nwidth = 640\n")

	want := "debug=true\n\n[video]\nwidth=640\n"
	if got := cfg.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestConfiguration_EncodeEmpty(t *testing.T) {
	if got := mustParse(t, "").String(); got != "" {
		t.Errorf("empty configuration encoded as %q", got)
	}
}

func equalOptions(a, b []Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
