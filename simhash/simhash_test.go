package simhash

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	a := Text("warm reading lamp with brass base and linen shade")
	if a == 0 {
		t.Fatal("non-empty text hashed to 0")
	}
	if b := Text("WARM reading lamp with brass base and linen shade"); a != b {
		t.Errorf("case changed hash: %s vs %s", a, b)
	}
	if b := Text("warm reading lamp with brass base and cotton shade"); Distance(a, b) > 24 {
		t.Errorf("one-word edit moved %d bits", Distance(a, b))
	}
	if b := Text("quarterly revenue report for the logistics division"); Distance(a, b) < 8 {
		t.Errorf("unrelated text only %d bits away", Distance(a, b))
	}
}

func TestText_Empty(t *testing.T) {
	for _, in := range []string{"", "  \n\t "} {
		if h := Text(in); h != 0 {
			t.Errorf("Text(%q) = %s, want 0", in, h)
		}
	}
}

func TestMarkup_IgnoresContent(t *testing.T) {
	tmpl := `<html><body><div class="p"><h1>%s</h1><p>%s</p><ul><li>a</li><li>b</li></ul></div></body></html>`
	a := Markup(strings.NewReplacer("%s", "Lamp").Replace(tmpl))
	b := Markup(strings.NewReplacer("%s", "Completely different words").Replace(tmpl))
	if a != b {
		t.Errorf("text change altered structure hash: %s vs %s", a, b)
	}

	other := Markup(`<html><body><table><tr><td>x</td></tr></table><form><input><input></form></body></html>`)
	if Near(a, other, 3) {
		t.Errorf("different templates are near: %s vs %s", a, other)
	}
}

func TestMarkup_ShortDocuments(t *testing.T) {
	if h := Markup(""); h != 0 {
		t.Errorf("empty markup = %s", h)
	}
	if h := Markup("<p>x</p>"); h == 0 {
		t.Error("single tag should still hash")
	}
}

func TestParseRoundTrip(t *testing.T) {
	h := Text("brass lamp")
	got, err := Parse(h.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != h {
		t.Errorf("Parse(%s) = %s", h, got)
	}
	if len(h.String()) != 16 {
		t.Errorf("String() = %q, want 16 digits", h.String())
	}
	if _, err := Parse("zz"); err == nil {
		t.Error("expected error for non-hex input")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b Hash
		want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0b1010, 0b0101, 4},
		{0, ^Hash(0), 64},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if !Near(tt.a, tt.b, tt.want) || (tt.want > 0 && Near(tt.a, tt.b, tt.want-1)) {
			t.Errorf("Near threshold wrong for %x, %x", tt.a, tt.b)
		}
	}
}
