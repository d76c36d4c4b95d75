// Package libdoc extracts keyword names from library documentation
// generated by the libdoc tool, to build the symbol index files read by
// [robotide.DirWorkspace].
//
// Two page layouts are understood. Current pages embed the documentation
// as a JSON object assigned to a "libdoc" script variable:
//
//	<script>libdoc = {"name": "Collections", "keywords": [{"name": "Append To List"}]};</script>
//
// Older pages list keywords in a table, one link per keyword:
//
//	<td class="kw"><a name="keyword-Append To List">Append To List</a></td>
//
// For other layouts a CSS selector picks the keyword elements:
//
//	lib, err := libdoc.Read(r, libdoc.Options{Selector: "div.kw-name"})
package libdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"blake.io/robotide"
	"github.com/ericchiang/css"
	"golang.org/x/net/html"
)

// DefaultSelector selects the keyword names of table-style pages.
const DefaultSelector = "td.kw>a"

// Options controls how keywords are found.
type Options struct {
	// Selector selects elements whose text is a keyword name.
	// Empty means DefaultSelector. The selector is used only if the page
	// has no embedded JSON documentation.
	Selector string

	// Name overrides the library name found in the page.
	Name string
}

// Library is the documentation of one library.
type Library struct {
	Name     string
	Keywords []string
}

// ErrNoKeywords is returned by Read for a page that documents no
// keywords.
var ErrNoKeywords = errors.New("no keywords found")

// Read parses a libdoc HTML page.
func Read(r io.Reader, opts Options) (*Library, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	lib, err := fromScript(doc)
	if err != nil {
		return nil, err
	}
	if lib == nil {
		lib, err = fromSelector(doc, opts.Selector)
		if err != nil {
			return nil, err
		}
	}
	if opts.Name != "" {
		lib.Name = opts.Name
	}
	if len(lib.Keywords) == 0 {
		return lib, ErrNoKeywords
	}
	return lib, nil
}

// WriteIndex writes the keyword names in index file format.
func (l *Library) WriteIndex(w io.Writer) error {
	return robotide.WriteSymbolIndex(w, l.Keywords)
}

// IndexName returns the file name of the library's index.
func (l *Library) IndexName() string {
	return robotide.IndexName(l.Name)
}

var scriptSel = mustParse("script")

const libdocVar = "libdoc ="

// fromScript reads the JSON documentation embedded in a script element.
// It returns nil if there is none.
func fromScript(doc *html.Node) (*Library, error) {
	for _, n := range scriptSel.Select(doc) {
		src := innerText(n)
		i := strings.Index(src, libdocVar)
		if i < 0 {
			continue
		}
		src = src[i+len(libdocVar):]
		start, end := strings.Index(src, "{"), strings.LastIndex(src, "}")
		if start < 0 || end < start {
			return nil, fmt.Errorf("malformed libdoc data")
		}
		var data struct {
			Name     string `json:"name"`
			Keywords []struct {
				Name string `json:"name"`
			} `json:"keywords"`
		}
		if err := json.Unmarshal([]byte(src[start:end+1]), &data); err != nil {
			return nil, fmt.Errorf("error parsing libdoc data: %w", err)
		}
		lib := &Library{Name: data.Name}
		for _, kw := range data.Keywords {
			lib.Keywords = appendName(lib.Keywords, kw.Name)
		}
		return lib, nil
	}
	return nil, nil
}

var titleSel = mustParse("title")

// fromSelector collects the text of the elements matching selector.
func fromSelector(doc *html.Node, selector string) (*Library, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	sel, err := css.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("error parsing selector %q: %w", selector, err)
	}
	lib := new(Library)
	if t := titleSel.Select(doc); len(t) > 0 {
		lib.Name = strings.TrimSpace(innerText(t[0]))
	}
	for _, n := range sel.Select(doc) {
		lib.Keywords = appendName(lib.Keywords, innerText(n))
	}
	return lib, nil
}

func mustParse(selector string) *css.Selector {
	sel, err := css.Parse(selector)
	if err != nil {
		panic(err)
	}
	return sel
}

// appendName appends a keyword name with its whitespace collapsed.
func appendName(names []string, s string) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return names
	}
	return append(names, s)
}

// innerText returns the concatenated text nodes below n.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
