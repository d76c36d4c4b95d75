package robotide

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Workspace gives the resolver access to the files of a project.
// File names are slash-separated and relative to the workspace root.
type Workspace interface {
	// ReadFile returns the decoded text of the named file and the name of
	// the encoding it was stored in.
	ReadFile(name string) (text, encoding string, err error)

	// ResolveRelative resolves a path written in the file from, such as
	// the argument of a Resource setting. It reports false if the target
	// does not exist.
	ResolveRelative(from, rel string) (string, bool)

	// Symbols returns the prebuilt index of the keywords of a library or
	// the variables of a variable file.
	Symbols(kind ImportKind, name string) (*SymbolIndex, bool)
}

// SymbolIndex lists the names defined by a library or variable file
// that is not parsed itself.
type SymbolIndex struct {
	Name    string
	Symbols []string
}

// ReadSymbolIndex reads an index file: one symbol per line. Blank lines
// and lines starting with '#' are skipped.
func ReadSymbolIndex(name string, r io.Reader) (*SymbolIndex, error) {
	idx := &SymbolIndex{Name: name}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		idx.Symbols = append(idx.Symbols, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return idx, nil
}

// WriteSymbolIndex writes symbols in the format read by [ReadSymbolIndex].
func WriteSymbolIndex(w io.Writer, symbols []string) error {
	bw := bufio.NewWriter(w)
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// IndexName returns the base name of the index file for a library or
// variable file: "Collections" and "lib/Collections.py" both map to
// "Collections.index".
func IndexName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".index"
}

// DirWorkspace is a [Workspace] backed by a file system, such as one
// returned by os.DirFS.
type DirWorkspace struct {
	// FS holds the project files.
	FS fs.FS

	// Index holds the symbol index files. If nil, no library or variable
	// file symbols are known.
	Index fs.FS
}

// ReadFile reads and decodes the named file.
//
// Files with a byte order mark are decoded as UTF-8 or UTF-16
// accordingly. Other files are read as UTF-8 if valid, and as ISO-8859-1
// otherwise.
func (w *DirWorkspace) ReadFile(name string) (text, enc string, err error) {
	data, err := fs.ReadFile(w.FS, name)
	if err != nil {
		return "", "", err
	}
	return Decode(data)
}

// Decode converts file contents to text and names the encoding used.
func Decode(data []byte) (text, enc string, err error) {
	var dec encoding.Encoding
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), "UTF-8", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		dec, enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "UTF-16LE"
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		dec, enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "UTF-16BE"
	case utf8.Valid(data):
		return string(data), "UTF-8", nil
	default:
		dec, enc = charmap.ISO8859_1, "ISO-8859-1"
	}
	b, _, err := transform.Bytes(dec.NewDecoder(), data)
	if err != nil {
		return "", "", fmt.Errorf("decoding %s: %w", enc, err)
	}
	return string(b), enc, nil
}

// ResolveRelative resolves rel against the directory of from. Windows
// style separators are accepted, and a leading slash makes rel relative
// to the workspace root.
func (w *DirWorkspace) ResolveRelative(from, rel string) (string, bool) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	var p string
	if strings.HasPrefix(rel, "/") {
		p = path.Clean(strings.TrimLeft(rel, "/"))
	} else {
		p = path.Join(path.Dir(from), rel)
	}
	if !fs.ValidPath(p) {
		return "", false
	}
	if _, err := fs.Stat(w.FS, p); err != nil {
		return "", false
	}
	return p, true
}

// Symbols reads the index file for name from w.Index.
func (w *DirWorkspace) Symbols(kind ImportKind, name string) (*SymbolIndex, bool) {
	if w.Index == nil {
		return nil, false
	}
	f, err := w.Index.Open(IndexName(name))
	if err != nil {
		return nil, false
	}
	defer f.Close()
	idx, err := ReadSymbolIndex(name, f)
	if err != nil {
		return nil, false
	}
	return idx, true
}
