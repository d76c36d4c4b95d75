package robotide

// VariableRegion returns the part of an argument that a variable proposal
// inserted at cursor should replace. text is the argument's raw value,
// start its absolute offset and cursor an absolute offset; all offsets
// are in code points. A cursor past the end of the argument is treated as
// being at its end.
//
// The region is empty at the cursor when the cursor is not inside a
// variable reference. Inside a closed reference such as ${name} it spans
// the whole reference. An unclosed reference extends to the start of the
// next reference, or the end of the argument, except that a cursor on or
// right after the marker replaces just the two-character ${ or @{ prefix.
// A bare $ or @ directly before the cursor is replaced on its own.
func VariableRegion(text string, start, cursor int) (regionStart, regionLength int) {
	rs := []rune(text)
	rel := min(cursor-start, len(rs))
	if rel <= 0 {
		return cursor, 0
	}

	m := -1
	for i := rel - 1; i >= 0; i-- {
		if isVariableMarker(rs[i]) {
			m = i
			break
		}
	}
	if m < 0 {
		return cursor, 0
	}
	if m+1 >= len(rs) || rs[m+1] != '{' {
		if rel == m+1 {
			return start + m, 1
		}
		return cursor, 0
	}

	next := len(rs)
	for i := m + 1; i < len(rs); i++ {
		if isVariableMarker(rs[i]) {
			next = i
			break
		}
	}
	for i := m + 2; i < next; i++ {
		if rs[i] == '}' {
			if rel <= i {
				return start + m, i + 1 - m
			}
			return cursor, 0
		}
	}
	if rel <= m+2 {
		return start + m, 2
	}
	return start + m, next - m
}

func isVariableMarker(r rune) bool {
	return r == '$' || r == '@'
}
