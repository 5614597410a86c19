package game

import "testing"

func TestParseCode(t *testing.T) {
	cases := []struct {
		s  string
		ok bool
	}{
		{"0123", true},
		{"9876", true},
		{"4071", true},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"-123", false},
		{"", false},
		{"1123", false}, // повтор
		{"0000", false},
	}
	for _, tc := range cases {
		c, err := ParseCode(tc.s)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseCode(%q) err=%v, want ok=%v", tc.s, err, tc.ok)
		}
		if err == nil && c.String() != tc.s {
			t.Fatalf("roundtrip: ParseCode(%q).String()=%q", tc.s, c.String())
		}
	}
}

func TestUniverse(t *testing.T) {
	u := Universe()

	if len(u) != UniverseSize {
		t.Fatalf("len(Universe)=%d, want %d", len(u), UniverseSize)
	}

	// лексикографический порядок фиксирует и порядок обхода пула
	if u[0] != (Code{0, 1, 2, 3}) {
		t.Fatalf("first=%v, want 0123", u[0])
	}
	if u[len(u)-1] != (Code{9, 8, 7, 6}) {
		t.Fatalf("last=%v, want 9876", u[len(u)-1])
	}

	seen := make(map[Code]bool, len(u))
	for _, c := range u {
		var digits [SymbolCount]bool
		for i := 0; i < CodeLen; i++ {
			if c[i] >= SymbolCount {
				t.Fatalf("out-of-alphabet digit in %v", c)
			}
			if digits[c[i]] {
				t.Fatalf("repeated digit in %v", c)
			}
			digits[c[i]] = true
		}
		if seen[c] {
			t.Fatalf("duplicate code %v", c)
		}
		seen[c] = true
	}
}

func TestRandomCode_IsValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := RandomCode()
		if _, err := ParseCode(c.String()); err != nil {
			t.Fatalf("RandomCode produced invalid code %v: %v", c, err)
		}
	}
}
