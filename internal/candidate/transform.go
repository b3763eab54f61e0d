package candidate

import "strings"

// CleanSeed keeps the ASCII letters and digits of seed. An empty result is
// replaced by Placeholder.
func CleanSeed(seed string) string {
	var b strings.Builder
	b.Grow(len(seed))
	for i := 0; i < len(seed); i++ {
		c := seed[i]
		if isAlnum(c) {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return Placeholder
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Leet applies the character substitution table to s.
func Leet(s string) string {
	out := []byte(s)
	for i, c := range out {
		if r, ok := leetTable[c]; ok {
			out[i] = r
		}
	}
	return string(out)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
