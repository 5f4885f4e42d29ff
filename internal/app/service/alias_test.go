package service

import "testing"

func TestGenerateAlias_Deterministic(t *testing.T) {
	a := GenerateAlias("https://example.com/some/long/path", "")
	b := GenerateAlias("https://example.com/some/long/path", "")
	if a != b {
		t.Fatalf("expected deterministic alias, got %q and %q", a, b)
	}
}

func TestGenerateAlias_FixedLength(t *testing.T) {
	inputs := []string{
		"https://example.com",
		"https://example.com/a/very/long/path?with=query&params=true",
		"x",
	}
	for _, in := range inputs {
		if got := GenerateAlias(in, ""); len(got) != aliasLength {
			t.Fatalf("GenerateAlias(%q) has length %d, want %d", in, len(got), aliasLength)
		}
	}
}

func TestGenerateAlias_SaltChangesResult(t *testing.T) {
	plain := GenerateAlias("https://example.com", "")
	salted := GenerateAlias("https://example.com", "1700000000")
	if plain == salted {
		t.Fatalf("expected salt to change the alias, both were %q", plain)
	}
}
