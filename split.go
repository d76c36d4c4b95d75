package robotide

import "strings"

// isBlank reports whether r can be part of a cell separator.
func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\u00a0'
}

// separatorEnd returns the index just past the separator starting at rs[i],
// or i if rs[i] does not start a separator. A separator is a run of blanks
// that contains a tab or is at least two characters long.
func separatorEnd(rs []rune, i int) int {
	j := i
	tab := false
	for j < len(rs) && isBlank(rs[j]) {
		if rs[j] == '\t' {
			tab = true
		}
		j++
	}
	if tab || j-i >= 2 {
		return j
	}
	return i
}

// Split splits a line of a table file into cells.
//
// charPos is the offset of the first character of line within its file;
// token offsets are absolute and counted in code points.
//
// Trailing whitespace is ignored, so a blank line yields no tokens.
// Whitespace at the start of the line yields an empty first cell, which
// marks the line as a continuation of the current test case or keyword.
// A cell that begins with '#' starts a comment; the comment token holds
// the remainder of the line.
//
// Escapes are not interpreted; the tokens keep the raw text.
func Split(line string, charPos int) []Token {
	rs := []rune(line)
	n := len(rs)
	for n > 0 && isBlank(rs[n-1]) {
		n--
	}
	if n == 0 {
		return nil
	}
	trailing := separatorEnd(rs, n) == len(rs) && n < len(rs)

	var toks []Token
	i := 0
	if isBlank(rs[0]) {
		i = 1
		for i < n && isBlank(rs[i]) {
			i++
		}
		toks = append(toks, Token{Start: charPos, ArgIndex: 0, TrailingSeparator: true})
	}

	for i < n {
		start := i
		if rs[i] == '#' {
			toks = append(toks, Token{
				Value:             string(rs[start:n]),
				Start:             charPos + start,
				ArgIndex:          len(toks),
				Kind:              ArgComment,
				TrailingSeparator: trailing,
			})
			break
		}
		for i < n && separatorEnd(rs[:n], i) == i {
			i++
		}
		tok := Token{
			Value:    string(rs[start:i]),
			Start:    charPos + start,
			ArgIndex: len(toks),
		}
		if i < n {
			tok.TrailingSeparator = true
			i = separatorEnd(rs[:n], i)
		} else {
			tok.TrailingSeparator = trailing
		}
		toks = append(toks, tok)
	}
	return toks
}

// Unescape interprets backslash escapes in a cell value.
// \n, \r and \t become the corresponding control characters, any other
// escaped character stands for itself, and a trailing lone backslash is
// dropped.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				b.WriteRune(r)
			}
			continue
		}
		escaped = false
		switch r {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
