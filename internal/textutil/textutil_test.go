package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hearing Showdown!", "hearing_showdown"},
		{"四二八案 重审", "四二八案_重审"},
		{"  ", "unknown"},
		{"a/b:c", "a_b_c"},
		{"E01-Core_Plot", "e01-core_plot"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := SanitizeFileName(`a/b\c:d*e?f"g<h>i|j`); got != "a-b-c-d-efghij" {
		t.Errorf("SanitizeFileName = %q", got)
	}
	if got := SanitizeFileName("  spaced  "); got != "spaced" {
		t.Errorf("SanitizeFileName trim = %q", got)
	}
}

func TestTokenizeCJKBigrams(t *testing.T) {
	terms := Tokenize("段洪山申诉")
	want := []string{"段洪", "洪山", "山申", "申诉"}
	if len(terms) != len(want) {
		t.Fatalf("Tokenize returned %v, want %v", terms, want)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := NewFingerprint("听证会 质证 举证 段洪山")
	b := NewFingerprint("段洪山 听证会 重审")
	c := NewFingerprint("completely unrelated english words")
	if sim := CosineSimilarity(a, b); sim <= 0 {
		t.Errorf("expected overlap similarity > 0, got %f", sim)
	}
	if sim := CosineSimilarity(a, c); sim != 0 {
		t.Errorf("expected zero similarity, got %f", sim)
	}
	if sim := CosineSimilarity(nil, b); sim != 0 {
		t.Errorf("nil fingerprint similarity = %f", sim)
	}
	if sim := CosineSimilarity(a, a); sim < 0.999 {
		t.Errorf("self similarity = %f, want ~1", sim)
	}
}
