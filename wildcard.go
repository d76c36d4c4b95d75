package robotide

import (
	"fmt"
	"strings"
)

// Match is the result of comparing a keyword call with a keyword name.
// MatchWildcard means the names are equal once embedded variables absorb
// text; MatchExact means they are equal ignoring case and contain no
// variables.
type Match int

const (
	MatchDifferent Match = iota
	MatchWildcard
	MatchExact
)

func (m Match) String() string {
	switch m {
	case MatchDifferent:
		return "Different"
	case MatchWildcard:
		return "Wildcard"
	case MatchExact:
		return "Exact"
	}
	return fmt.Sprintf("Match(%d)", int(m))
}

// wildcard stands for a ${...} span. It is a private use character, so
// it does not occur in real keyword names.
const wildcard = '\uE000'

// matchBudget caps the number of steps MatchKeyword spends on one pair
// of names.
const matchBudget = 10000

// MatchKeyword compares the text of a keyword call with the name of a
// keyword definition, ignoring case. Every ${...} span in either string
// matches any run of characters, including none, so "Select ${x} from
// list" matches a call of "Select apple from list" and vice versa.
//
// Pathological names that need too much backtracking are reported as
// MatchDifferent.
func MatchKeyword(call, definition string) Match {
	a, wa := replaceVariables(call)
	b, wb := replaceVariables(definition)
	a, b = fold(a), fold(b)
	if a == b {
		if wa || wb {
			return MatchWildcard
		}
		return MatchExact
	}
	if !wa && !wb {
		return MatchDifferent
	}
	budget := matchBudget
	if wildMatch([]rune(a), []rune(b), &budget) {
		return MatchWildcard
	}
	return MatchDifferent
}

// replaceVariables replaces each ${...} span of s with the wildcard
// character and reports whether it replaced any. An unclosed span is left
// as it is.
func replaceVariables(s string) (string, bool) {
	if !strings.Contains(s, "${") {
		return s, false
	}
	var b strings.Builder
	found := false
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			break
		}
		b.WriteString(s[:i])
		b.WriteRune(wildcard)
		s = s[i+j+1:]
		found = true
	}
	b.WriteString(s)
	return b.String(), found
}

// wildMatch reports whether a and b match when every wildcard in either
// of them can stand for any run of characters. It consumes *budget and
// gives up when it runs out.
func wildMatch(a, b []rune, budget *int) bool {
	*budget--
	if *budget < 0 {
		return false
	}
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] && a[0] != wildcard {
		a, b = a[1:], b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] && a[len(a)-1] != wildcard {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}
	switch {
	case len(a) == 0 && len(b) == 0:
		return true
	case len(a) == 0:
		return onlyWildcards(b)
	case len(b) == 0:
		return onlyWildcards(a)
	case len(a) == 1 && a[0] == wildcard, len(b) == 1 && b[0] == wildcard:
		return true
	// A wildcard opening one side and one closing the other cover
	// everything in between.
	case a[0] == wildcard && b[len(b)-1] == wildcard,
		b[0] == wildcard && a[len(a)-1] == wildcard:
		return true
	}

	if a[0] != wildcard {
		if b[0] != wildcard {
			return false
		}
		a, b = b, a
	}
	// a starts with a wildcard: let it absorb every possible prefix of b.
	for i := 0; i <= len(b); i++ {
		if wildMatch(a[1:], b[i:], budget) {
			return true
		}
		if *budget < 0 {
			return false
		}
	}
	return false
}

func onlyWildcards(rs []rune) bool {
	for _, r := range rs {
		if r != wildcard {
			return false
		}
	}
	return true
}
