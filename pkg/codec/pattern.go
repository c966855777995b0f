package codec

import "unicode/utf8"

// Pattern is a line prefix pattern. '*' matches any run of characters and
// '?' matches exactly one; every other character matches itself. A pattern
// only has to match the start of a line, so "MY" and "MY*" are equivalent.
type Pattern string

// Match reports whether line starts with text matching p.
func (p Pattern) Match(line string) bool {
	return match(string(p), line)
}

// match is a prefix glob. Only the last '*' seen is backtracked to.
func match(pattern, line string) bool {
	starP, starL := -1, 0
	p, l := 0, 0
	for {
		if p == len(pattern) {
			return true
		}
		pr, psize := utf8.DecodeRuneInString(pattern[p:])
		if pr == '*' {
			starP, starL = p+psize, l
			p += psize
			continue
		}
		if l < len(line) {
			lr, lsize := utf8.DecodeRuneInString(line[l:])
			if pr == '?' || pr == lr {
				p += psize
				l += lsize
				continue
			}
		}
		if starP < 0 || starL >= len(line) {
			return false
		}
		_, skip := utf8.DecodeRuneInString(line[starL:])
		starL += skip
		p, l = starP, starL
	}
}
