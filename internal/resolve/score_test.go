package resolve

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "website", "website", 1.0},
		{"case insensitive", "Website", "wEBSITE", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "", "abc", 0.0},
		{"completely different", "abc", "xyz", 0.0},
		{"one edit of four", "task", "tusk", 0.75},
		{"half edits", "ab", "ax", 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.a, tc.b)
			if got != tc.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"landing page", "landing pages"},
		{"Website Redesign", "website"},
		{"a", "abcdef"},
	}
	for _, p := range pairs {
		if Score(p[0], p[1]) != Score(p[1], p[0]) {
			t.Errorf("Score(%q, %q) not symmetric", p[0], p[1])
		}
	}
}

func TestScoreBounds(t *testing.T) {
	pairs := [][2]string{
		{"", "anything"},
		{"short", "a much longer string entirely"},
		{"same", "same"},
	}
	for _, p := range pairs {
		s := Score(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"4f1c2d3e-aaaa-bbbb-cccc-1234567890ab", true},
		{"4F1C2D3E-AAAA-BBBB-CCCC-1234567890AB", true},
		{"not-an-id", false},
		{"", false},
		{"4f1c2d3e-aaaa-bbbb-cccc-1234567890", false},
	}
	for _, tc := range tests {
		if got := IsID(tc.ref); got != tc.want {
			t.Errorf("IsID(%q) = %v, want %v", tc.ref, got, tc.want)
		}
	}
}
