package identifier

import "strings"

// FallbackDeptCode is used when a department name contains no letters.
const FallbackDeptCode = "GEN"

// DeptCode reduces a free-text department name to exactly three
// uppercase letters: uppercase the input, drop everything that is not
// A-Z, keep the first three characters and right-pad with X when fewer
// remain. Blank input falls back to GEN. The function is total over
// all strings.
func DeptCode(department string) string {
	var code strings.Builder
	for _, r := range strings.ToUpper(department) {
		if r < 'A' || r > 'Z' {
			continue
		}
		code.WriteRune(r)
		if code.Len() == 3 {
			break
		}
	}
	if code.Len() == 0 {
		return FallbackDeptCode
	}
	out := code.String()
	for len(out) < 3 {
		out += "X"
	}
	return out
}
