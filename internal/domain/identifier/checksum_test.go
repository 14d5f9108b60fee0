package identifier

import "testing"

func TestChecksumKnownValues(t *testing.T) {
	cases := map[string]string{
		"ART-25-ENG-000001": "4",
		"ART-25-ENG-000042": "0",
		"ART-25-GEN-000001": "4",
		"ART-24-FIN-000123": "2",
		"A":                 "2",
		"":                  "0",
	}
	for body, want := range cases {
		if got := Checksum(body); got != want {
			t.Fatalf("Checksum(%q) = %q, want %q", body, got, want)
		}
	}
}

func TestChecksumRangeAndDeterminism(t *testing.T) {
	inputs := []string{
		"ART-25-ENG-000001",
		"staff",
		"zażółć gęślą jaźń",
		"日本語テキスト",
		"😀 emoji, surrogate pairs",
		"   ",
	}
	for _, in := range inputs {
		first := Checksum(in)
		if len(first) != 1 || first[0] < '0' || first[0] > '8' {
			t.Fatalf("Checksum(%q) = %q, want single digit 0-8", in, first)
		}
		for i := 0; i < 10; i++ {
			if again := Checksum(in); again != first {
				t.Fatalf("Checksum(%q) not deterministic: %q then %q", in, first, again)
			}
		}
	}
}
