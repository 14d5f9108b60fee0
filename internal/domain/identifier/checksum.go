package identifier

import (
	"strconv"
	"unicode/utf16"
)

// Checksum returns the single detection digit ("0".."8") for an
// identifier body. Every character's UTF-16 code unit value is written
// out as decimal text, the digits of the whole concatenated stream are
// summed and the sum is reduced modulo 9.
//
// The code-unit encoding is fixed so that identifiers issued on one
// platform keep verifying on every other, regardless of how the body
// was stored in between.
func Checksum(body string) string {
	sum := 0
	for _, unit := range utf16.Encode([]rune(body)) {
		for _, digit := range strconv.Itoa(int(unit)) {
			sum += int(digit - '0')
		}
	}
	return strconv.Itoa(sum % 9)
}
