package identifier

import "testing"

func TestDeptCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "GEN"},
		{"   ", "GEN"},
		{"123-!?", "GEN"},
		{"engineering!", "ENG"},
		{"Engineering", "ENG"},
		{"ab", "ABX"},
		{"x", "XXX"},
		{"Human Resources", "HUM"},
		{"R&D 42", "RDX"},
		{"finance", "FIN"},
	}
	for _, tc := range cases {
		if got := DeptCode(tc.in); got != tc.want {
			t.Fatalf("DeptCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeptCodeAlwaysThreeUppercaseLetters(t *testing.T) {
	inputs := []string{"", "a", "zz", "marketing", "Straße", "123", "ops/infra", "Ωmega"}
	for _, in := range inputs {
		code := DeptCode(in)
		if len(code) != 3 {
			t.Fatalf("DeptCode(%q) = %q, want length 3", in, code)
		}
		for i := 0; i < len(code); i++ {
			if code[i] < 'A' || code[i] > 'Z' {
				t.Fatalf("DeptCode(%q) = %q, want only A-Z", in, code)
			}
		}
	}
}
