package robotide

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		line string
		pos  int
		want []Token
	}{
		{
			name: "setting",
			line: "Resource    foo.txt",
			pos:  10,
			want: []Token{
				{Value: "Resource", Start: 10, ArgIndex: 0, TrailingSeparator: true},
				{Value: "foo.txt", Start: 22, ArgIndex: 1},
			},
		},
		{
			name: "step",
			line: "    Log    Hello",
			want: []Token{
				{Value: "", Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "Log", Start: 4, ArgIndex: 1, TrailingSeparator: true},
				{Value: "Hello", Start: 11, ArgIndex: 2},
			},
		},
		{
			name: "single leading space",
			line: " Log",
			want: []Token{
				{Value: "", Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "Log", Start: 1, ArgIndex: 1},
			},
		},
		{
			name: "single space inside cell",
			line: "Say Hello\tworld  ",
			want: []Token{
				{Value: "Say Hello", Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "world", Start: 10, ArgIndex: 1, TrailingSeparator: true},
			},
		},
		{
			name: "tab",
			line: "x\ty",
			want: []Token{
				{Value: "x", Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "y", Start: 2, ArgIndex: 1},
			},
		},
		{
			name: "comment line",
			line: "# just a comment  ",
			want: []Token{
				{Value: "# just a comment", Start: 0, ArgIndex: 0, Kind: ArgComment, TrailingSeparator: true},
			},
		},
		{
			name: "trailing comment",
			line: "Log    x    # note  about  x",
			want: []Token{
				{Value: "Log", Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "x", Start: 7, ArgIndex: 1, TrailingSeparator: true},
				{Value: "# note  about  x", Start: 12, ArgIndex: 2, Kind: ArgComment},
			},
		},
		{
			name: "hash inside cell",
			line: "a #b",
			want: []Token{{Value: "a #b", Start: 0, ArgIndex: 0}},
		},
		{
			name: "escaped hash",
			line: `\#  not comment`,
			want: []Token{
				{Value: `\#`, Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "not comment", Start: 4, ArgIndex: 1},
			},
		},
		{
			name: "code points",
			line: "日本  語",
			pos:  5,
			want: []Token{
				{Value: "日本", Start: 5, ArgIndex: 0, TrailingSeparator: true},
				{Value: "語", Start: 9, ArgIndex: 1},
			},
		},
		{
			name: "empty cell marker",
			line: `\    x`,
			want: []Token{
				{Value: `\`, Start: 0, ArgIndex: 0, TrailingSeparator: true},
				{Value: "x", Start: 5, ArgIndex: 1},
			},
		},
		{name: "empty", line: ""},
		{name: "blank", line: " \t  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.line, tt.pos)
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("Split(%q, %d) (-want +got):\n%s", tt.line, tt.pos, d)
			}
		})
	}
}

func TestTokenIsEmpty(t *testing.T) {
	for _, v := range []string{"", `\`} {
		if !(Token{Value: v}).IsEmpty() {
			t.Errorf("Token %q is not empty", v)
		}
	}
	for _, v := range []string{" ", `\\`, "x"} {
		if (Token{Value: v}).IsEmpty() {
			t.Errorf("Token %q is empty", v)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{`a\tb`, "a\tb"},
		{`line\nbreak\r`, "line\nbreak\r"},
		{`\\`, `\`},
		{`\#comment`, "#comment"},
		{`\${not a var}`, "${not a var}"},
		{`trailing\`, "trailing"},
		{`\`, ""},
		{"日本\\語", "日本語"},
	}
	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// FuzzSplit checks that the cells of a line are exactly its text
// between separators.
func FuzzSplit(f *testing.F) {
	f.Add("Resource    foo.txt")
	f.Add("    Log    Hello    # comment")
	f.Add("\t\\    x\ty  ")
	f.Add("a b  c  d")
	f.Add("")
	f.Fuzz(func(t *testing.T, line string) {
		rs := []rune(line)
		n := len(rs)
		for n > 0 && isBlank(rs[n-1]) {
			n--
		}
		toks := Split(line, 7)
		if n == 0 {
			if len(toks) != 0 {
				t.Fatalf("blank line gave %d tokens", len(toks))
			}
			return
		}

		end := 0
		for i, tok := range toks {
			if tok.ArgIndex != i {
				t.Errorf("token %d has ArgIndex %d", i, tok.ArgIndex)
			}
			s, e := tok.Start-7, tok.End()-7
			if s < end || e > n {
				t.Fatalf("token %d %v out of order or out of range", i, tok)
			}
			for _, r := range rs[end:s] {
				if !isBlank(r) {
					t.Fatalf("non-blank %q between tokens in %q", r, line)
				}
			}
			if got := string(rs[s:e]); got != tok.Value {
				t.Fatalf("token %d = %q, source has %q", i, tok.Value, got)
			}
			end = e
		}
		if end != n {
			t.Fatalf("tokens end at %d, line text at %d", end, n)
		}
		if last := toks[len(toks)-1]; last.Kind == ArgComment && last.Value[0] != '#' {
			t.Fatalf("comment token %q", last.Value)
		}
		if !isBlank(rs[0]) && toks[0].Value == "" {
			t.Fatalf("empty first cell without leading whitespace in %q", line)
		}
		if v := toks[0].Value; !strings.ContainsRune(v, '\\') && Unescape(v) != v {
			t.Fatalf("Unescape changed %q", v)
		}
	})
}
