package robotide

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantEnc string
	}{
		{"utf8", "Log    héllo", "Log    héllo", "UTF-8"},
		{"utf8 bom", "\xEF\xBB\xBFLog", "Log", "UTF-8"},
		{"utf16le", "\xFF\xFEL\x00o\x00g\x00", "Log", "UTF-16LE"},
		{"utf16be", "\xFE\xFF\x00L\x00o\x00g", "Log", "UTF-16BE"},
		{"latin1", "caf\xe9", "café", "ISO-8859-1"},
		{"empty", "", "", "UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || enc != tt.wantEnc {
				t.Errorf("Decode(%q) = %q, %s; want %q, %s", tt.data, got, enc, tt.want, tt.wantEnc)
			}
		})
	}
}

func TestDirWorkspaceReadFile(t *testing.T) {
	ws := &DirWorkspace{FS: fstest.MapFS{
		"latin1.robot": {Data: []byte("*** Test Cases ***\nCaf\xe9\n")},
	}}
	text, enc, err := ws.ReadFile("latin1.robot")
	if err != nil {
		t.Fatal(err)
	}
	if text != "*** Test Cases ***\nCafé\n" || enc != "ISO-8859-1" {
		t.Errorf("ReadFile = %q, %s", text, enc)
	}

	_, _, err = ws.ReadFile("missing.robot")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestResolveRelative(t *testing.T) {
	ws := &DirWorkspace{FS: fstest.MapFS{
		"suite/a.robot":         {},
		"suite/common.resource": {},
		"lib/shared.resource":   {},
		"top.resource":          {},
	}}
	tests := []struct {
		from, rel string
		want      string
		ok        bool
	}{
		{"suite/a.robot", "common.resource", "suite/common.resource", true},
		{"suite/a.robot", "./common.resource", "suite/common.resource", true},
		{"suite/a.robot", "../lib/shared.resource", "lib/shared.resource", true},
		{"suite/a.robot", `..\lib\shared.resource`, "lib/shared.resource", true},
		{"suite/a.robot", "/top.resource", "top.resource", true},
		{"suite/a.robot", "/suite/../top.resource", "top.resource", true},
		{"top.resource", "suite/common.resource", "suite/common.resource", true},
		{"suite/a.robot", "missing.resource", "", false},
		{"suite/a.robot", "../../outside.resource", "", false},
	}
	for _, tt := range tests {
		got, ok := ws.ResolveRelative(tt.from, tt.rel)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ResolveRelative(%q, %q) = %q, %v; want %q, %v", tt.from, tt.rel, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReadSymbolIndex(t *testing.T) {
	const data = `# Collections 7.0
Append To List

  Get From List
# end
`
	idx, err := ReadSymbolIndex("Collections", strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := &SymbolIndex{Name: "Collections", Symbols: []string{"Append To List", "Get From List"}}
	if d := cmp.Diff(want, idx); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

func TestWriteSymbolIndex(t *testing.T) {
	var b strings.Builder
	if err := WriteSymbolIndex(&b, []string{"Create File", "  ", " Remove File "}); err != nil {
		t.Fatal(err)
	}
	if got, want := b.String(), "Create File\nRemove File\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndexName(t *testing.T) {
	tests := map[string]string{
		"Collections":        "Collections.index",
		"lib/Collections.py": "Collections.index",
		`lib\My.Lib.py`:      "My.Lib.index",
		"vars.yaml":          "vars.index",
		".hidden":            ".hidden.index",
	}
	for name, want := range tests {
		if got := IndexName(name); got != want {
			t.Errorf("IndexName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSymbols(t *testing.T) {
	ws := &DirWorkspace{
		FS: fstest.MapFS{},
		Index: fstest.MapFS{
			"Collections.index": {Data: []byte("Append To List\nGet From List\n")},
		},
	}
	for _, name := range []string{"Collections", "libs/Collections.py"} {
		idx, ok := ws.Symbols(ImportLibrary, name)
		if !ok {
			t.Fatalf("no symbols for %q", name)
		}
		if idx.Name != name || len(idx.Symbols) != 2 {
			t.Errorf("Symbols(%q) = %+v", name, idx)
		}
	}
	if _, ok := ws.Symbols(ImportLibrary, "String"); ok {
		t.Error("found symbols of a library without an index")
	}

	ws.Index = nil
	if _, ok := ws.Symbols(ImportLibrary, "Collections"); ok {
		t.Error("found symbols without an index directory")
	}
}
