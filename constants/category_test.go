package constants

import "testing"

func TestCanonicalizeMatchesEnumVerbatim(t *testing.T) {
	for _, c := range AsStringSlice() {
		got, ok := Canonicalize(c)
		if !ok || string(got) != c {
			t.Fatalf("Canonicalize(%q) = %q, %v", c, got, ok)
		}
	}
}

func TestCanonicalizeSynonyms(t *testing.T) {
	cases := map[string]Category{
		"payroll":          GovernmentRemittances,
		"Final Pay":        GovernmentRemittances,
		"consulting":       ManpowerConsultant,
		"Service Provider": ManpowerConsultant,
		"others":           Others,
	}
	for in, want := range cases {
		got, ok := Canonicalize(in)
		if !ok || got != want {
			t.Fatalf("Canonicalize(%q) = %q, %v, want %q", in, got, ok, want)
		}
	}
}

func TestCanonicalizeUnknown(t *testing.T) {
	if _, ok := Canonicalize("Travel"); ok {
		t.Fatal("unknown category canonicalized")
	}
	if _, ok := Canonicalize(""); ok {
		t.Fatal("empty category canonicalized")
	}
}

func TestIsAllowedExt(t *testing.T) {
	for _, ext := range []string{".png", ".JPG", "jpeg", ".tif", ".tiff", ".pdf"} {
		if !IsAllowedExt(ext) {
			t.Errorf("IsAllowedExt(%q) = false", ext)
		}
	}
	for _, ext := range []string{".docx", ".txt", "", ".heic"} {
		if IsAllowedExt(ext) {
			t.Errorf("IsAllowedExt(%q) = true", ext)
		}
	}
}
