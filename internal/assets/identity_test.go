package assets

import (
	"regexp"
	"testing"
)

func TestColor(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)

	for _, id := range []int64{0, 1, 42, 359, 360, 100500, -1} {
		got := Color(id)
		if !hex.MatchString(got) {
			t.Errorf("Color(%d) = %q, not a hex color", id, got)
		}
		if got != Color(id) {
			t.Errorf("Color(%d) not deterministic", id)
		}
	}

	// Hue wraps at 360 and negative ids map into [0,360).
	if Color(5) != Color(365) {
		t.Error("Color(5) != Color(365)")
	}
	if Color(-1) != Color(359) {
		t.Error("Color(-1) != Color(359)")
	}
	if Color(0) == Color(120) {
		t.Error("distinct hues collapsed to the same color")
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"John Doe", "JD"},
		{"alice", "A"},
		{"  multi word name", "MW"},
		{"123 club", "1C"},
		{"(brackets) name", "BN"},
		{"Go News Channel", "GN"},
		{"!!!", "!"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Initials(tt.title); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
