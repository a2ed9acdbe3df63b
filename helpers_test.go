package overlaypost

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Launch Day Frame", "launch-day-frame"},
		{"  Summer  2026!! ", "summer-2026"},
		{"---", ""},
		{"Über Post", "ber-post"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	want := `attachment; filename="overlayed_image.png"`
	if got := contentDisposition("overlayed_image.png"); got != want {
		t.Errorf("contentDisposition = %q, want %q", got, want)
	}
}
