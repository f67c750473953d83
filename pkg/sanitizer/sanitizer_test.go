package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Camera A", "Camera A"},
		{"surrounding whitespace", "  Camera A  ", "Camera A"},
		{"inner whitespace collapsed", "Camera \t  A", "Camera A"},
		{"control characters stripped", "Cam\x00era\x1fA", "CameraA"},
		{"case preserved", "GoPro HERO", "GoPro HERO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeTags(t *testing.T) {
	got := SanitizeTags([]string{" Video ", "FIELD", "video", "", "\x00"})
	want := []string{"video", "field"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeTags = %v, want %v", got, want)
	}
}

func TestSanitizeTags_Empty(t *testing.T) {
	if got := SanitizeTags(nil); got != nil {
		t.Errorf("expected nil passthrough, got %v", got)
	}
}
