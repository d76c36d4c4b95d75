package robotide

import (
	"context"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FindAll returns every definition of the given kind reachable from
// file, in the order [Resolver.FindMatches] visits them.
func FindAll(ctx context.Context, r *Resolver, file string, kind LineType) []Definition {
	var defs []Definition
	r.FindMatches(ctx, file, kind, VisitorFunc(func(d Definition) Interest {
		defs = append(defs, d)
		return Continue
	}))
	return defs
}

// FindDefinition returns the definition a reference to name in file
// resolves to.
//
// Keyword names are compared with [MatchKeyword]. An exact match ends
// the search; a match through embedded variables is used only if no file
// of the same priority has an exact match. Variable names are compared
// ignoring case, spaces and underscores, and test case names ignoring
// case.
func FindDefinition(ctx context.Context, r *Resolver, file string, kind LineType, name string) (Definition, bool) {
	var (
		found Definition
		ok    bool
		exact bool
	)
	r.FindMatches(ctx, file, kind, VisitorFunc(func(d Definition) Interest {
		switch kind {
		case LineKeywordBegin:
			switch MatchKeyword(name, d.Name.Value) {
			case MatchExact:
				found, ok, exact = d, true, true
				return Stop
			case MatchWildcard:
				if !ok {
					found, ok = d, true
				}
				return ContinueToEndOfPriority
			}
		case LineVariableTable:
			if variableName(d.Name.Value) == variableName(name) {
				found, ok = d, true
				return Stop
			}
		default:
			if fold(d.Name.Value) == fold(name) {
				found, ok = d, true
				return Stop
			}
		}
		return Continue
	}))
	if ok && !exact {
		r.logger().Debug("keyword matched through embedded variables", "name", name, "definition", found.Name.Value)
	}
	return found, ok
}

// variableName normalizes a variable reference for comparison: the
// ${ or @{ prefix, the closing brace and a trailing "=" are dropped.
func variableName(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "="))
	if len(s) >= 3 && (s[0] == '$' || s[0] == '@' || s[0] == '&') && s[1] == '{' && strings.HasSuffix(s, "}") {
		s = s[2 : len(s)-1]
	}
	return normalizeName(s)
}

// Proposal is a completion candidate.
type Proposal struct {
	// Text replaces the region [Start, Start+Length) of the file.
	Text   string
	Start  int
	Length int

	Definition Definition
}

// Complete returns completion proposals for the cursor offset in f.
//
// Inside a ${ or @{ reference it proposes variables; in a keyword call
// cell it proposes keywords. Candidates are filtered and ranked by a
// fuzzy match against the text between the start of the replaced region
// and the cursor. A definition shadowed by a definition of the same name
// at a higher priority is not proposed.
func Complete(ctx context.Context, r *Resolver, f *File, cursor int) []Proposal {
	l := f.LineAt(cursor)
	if l == nil {
		return nil
	}
	i := l.TokenAt(cursor)
	if i < 0 {
		return nil
	}
	tok := l.Tokens[i]

	if start, n := VariableRegion(tok.Value, tok.Start, cursor); n > 0 {
		prefix := runeSlice(tok.Value, start-tok.Start, cursor-tok.Start)
		return propose(FindAll(ctx, r, f.Name, LineVariableTable), prefix, start, n, variableName)
	}
	switch tok.Kind {
	case ArgKeywordCall, ArgKeywordCallDynamic:
		prefix := runeSlice(tok.Value, 0, cursor-tok.Start)
		return propose(FindAll(ctx, r, f.Name, LineKeywordBegin), prefix, tok.Start, tok.Len(), normalizeName)
	}
	return nil
}

// runeSlice returns s[i:j] counted in code points.
func runeSlice(s string, i, j int) string {
	rs := []rune(s)
	j = min(j, len(rs))
	i = min(max(i, 0), j)
	return string(rs[i:j])
}

// propose ranks the unshadowed definitions against prefix.
func propose(defs []Definition, prefix string, start, length int, key func(string) string) []Proposal {
	seen := make(map[string]bool)
	var names []string
	var kept []Definition
	for _, d := range defs {
		k := key(d.Name.Value)
		if seen[k] {
			continue
		}
		seen[k] = true
		names = append(names, d.Name.Value)
		kept = append(kept, d)
	}

	ranks := fuzzy.RankFindFold(prefix, names)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})
	props := make([]Proposal, 0, len(ranks))
	for _, rk := range ranks {
		props = append(props, Proposal{
			Text:       rk.Target,
			Start:      start,
			Length:     length,
			Definition: kept[rk.OriginalIndex],
		})
	}
	return props
}
