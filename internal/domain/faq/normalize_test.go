package faq

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "trims whitespace", in: "  Hello World  ", out: "Hello World"},
		{name: "keeps sentence punctuation", in: "What's, the distance?!", out: "Whats the distance?!"},
		{name: "collapses whitespace", in: "how\t\tdo   I\napply", out: "how do I apply"},
		{name: "keeps unicode letters", in: "Bagaimana cara méndaftar?", out: "Bagaimana cara méndaftar?"},
		{name: "keeps underscores and digits", in: "form_A1 (v2)", out: "form_A1 v2"},
		{name: "keeps non-decimal numerics", in: "area in m² (x½)", out: "area in m² x½"},
		{name: "keeps combining marks", in: "café?", out: "café?"},
		{name: "empty", in: "   ", out: ""},
	}

	for _, tc := range cases {
		if got := NormalizeText(tc.in); got != tc.out {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.out, got)
		}
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{
		"  How do I renew my KTP?? ",
		"Apa itu NPWP... (pajak)",
		"#$%^&*",
		"multi\n\nline\tquestion!",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		if twice := NormalizeText(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDedupKeyFoldsCase(t *testing.T) {
	if dedupKey("How do I apply?") != dedupKey("  how do i APPLY? ") {
		t.Fatalf("expected case-insensitive dedup keys to match")
	}
}
