package robotide

import (
	"strings"
	"testing"
)

func TestMatchKeyword(t *testing.T) {
	tests := []struct {
		call, def string
		want      Match
	}{
		{"AAA", "aaa", MatchExact},
		{"a", "b", MatchDifferent},
		{"Say Hello", "say hello", MatchExact},
		{"Say Hello", "Say Goodbye", MatchDifferent},
		{"K${x}A${y}", "KLAA", MatchWildcard},
		{"Select apple from list", "Select ${item} from list", MatchWildcard},
		{"Select from list", "Select ${item} from list", MatchDifferent},
		{"Select  from list", "Select ${item} from list", MatchWildcard},
		{"Log ${x}", "Log ${y}", MatchWildcard},
		{"${kw}", "Anything At All", MatchWildcard},
		{"${a}b${c}", "${d}e", MatchWildcard},
		{"Open ${a} and ${b}", "Open x and y", MatchWildcard},
		{"Open ${a} and ${b}", "Open x or y", MatchDifferent},
		{"Unclosed ${x", "unclosed ${X", MatchExact},
		{"Ärger", "ärger", MatchExact},
	}
	for _, tt := range tests {
		if got := MatchKeyword(tt.call, tt.def); got != tt.want {
			t.Errorf("MatchKeyword(%q, %q) = %v, want %v", tt.call, tt.def, got, tt.want)
		}
		if got := MatchKeyword(tt.def, tt.call); got != tt.want {
			t.Errorf("MatchKeyword(%q, %q) = %v, want %v", tt.def, tt.call, got, tt.want)
		}
	}
}

func TestMatchKeywordBudget(t *testing.T) {
	// No split can match: the names end differently. Without a budget
	// this would try every way of spreading the a's over the wildcards.
	def := strings.Repeat("${v}a", 12) + "b"
	call := strings.Repeat("a", 40) + "c"
	if got := MatchKeyword(call, def); got != MatchDifferent {
		t.Errorf("got %v, want Different", got)
	}

	a, b := []rune(string(wildcard)+"x"+string(wildcard)+"y"), []rune("axbxcy")
	budget := 1
	if wildMatch(a, b, &budget) {
		t.Error("matched after running out of budget")
	}
	budget = matchBudget
	if !wildMatch(a, b, &budget) {
		t.Error("no match with the full budget")
	}
}

func TestMatchString(t *testing.T) {
	for m, want := range map[Match]string{
		MatchDifferent: "Different",
		MatchWildcard:  "Wildcard",
		MatchExact:     "Exact",
		Match(7):       "Match(7)",
	} {
		if got := m.String(); got != want {
			t.Errorf("Match(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}
