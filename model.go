package robotide

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s used for case-insensitive
// comparisons. A Caser is stateful, so one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// normalizeName folds case and removes spaces and underscores, the way
// the framework compares setting and keyword names.
func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '\t' {
			return -1
		}
		return r
	}, fold(s))
}

// OrderedMap holds definitions keyed by name in the order they were
// added. Names are unique under case folding; the first definition of a
// name wins. The zero value is an empty map ready to use.
type OrderedMap[V any] struct {
	keys  []Token
	vals  []V
	index map[string]int
}

// orderedKey ignores a trailing "=" so that an assignment-style variable
// name such as "${x}=" collides with "${x}".
func orderedKey(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), "=")
	return fold(strings.TrimSpace(name))
}

// Add records v under key unless a definition with the same name exists.
// It reports whether v was added.
func (m *OrderedMap[V]) Add(key Token, v V) bool {
	k := orderedKey(key.Value)
	if _, ok := m.index[k]; ok {
		return false
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
	return true
}

// Get returns the definition of name.
func (m *OrderedMap[V]) Get(name string) (V, bool) {
	i, ok := m.index[orderedKey(name)]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

// set replaces the value stored under an existing name.
func (m *OrderedMap[V]) set(name string, v V) {
	if i, ok := m.index[orderedKey(name)]; ok {
		m.vals[i] = v
	}
}

// Key returns the token that defined name.
func (m *OrderedMap[V]) Key(name string) (Token, bool) {
	i, ok := m.index[orderedKey(name)]
	if !ok {
		return Token{}, false
	}
	return m.keys[i], true
}

// Len returns the number of definitions.
func (m *OrderedMap[V]) Len() int { return len(m.keys) }

// Keys returns the defining tokens in order.
func (m *OrderedMap[V]) Keys() []Token { return slices.Clone(m.keys) }

// All iterates over the definitions in order.
func (m *OrderedMap[V]) All() iter.Seq2[Token, V] {
	return func(yield func(Token, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// ImportKind is the kind of file a Settings import refers to.
type ImportKind int

const (
	ImportResource ImportKind = iota
	ImportLibrary
	ImportVariables
)

func (k ImportKind) String() string {
	switch k {
	case ImportResource:
		return "Resource"
	case ImportLibrary:
		return "Library"
	case ImportVariables:
		return "Variables"
	}
	return fmt.Sprintf("ImportKind(%d)", int(k))
}

// Import is a Resource, Library or Variables setting.
type Import struct {
	Kind ImportKind

	// Path is the file path or library name as written.
	Path Token

	// Args are the arguments passed to a library or variable file.
	Args []Token

	// Alias is the name given with WITH NAME; its Value is empty when
	// there is none.
	Alias Token
}

// Name returns the name the import is registered under.
func (i *Import) Name() string {
	if i.Alias.Value != "" {
		return i.Alias.Value
	}
	return i.Path.Value
}

// KeywordCall is a call of a keyword: a test step, a setup or teardown,
// or a template.
type KeywordCall struct {
	// Assign holds the variables the return value is assigned to.
	Assign  []Token
	Keyword Token
	Args    []Token
}

// Settings holds the contents of the Settings table.
type Settings struct {
	Documentation []Token
	Metadata      OrderedMap[[]Token]

	SuiteSetup    *KeywordCall
	SuiteTeardown *KeywordCall
	TestSetup     *KeywordCall
	TestTeardown  *KeywordCall
	TestTemplate  *KeywordCall
	TestTimeout   []Token

	ForceTags   []Token
	DefaultTags []Token

	Resources     OrderedMap[*Import]
	Libraries     OrderedMap[*Import]
	VariableFiles OrderedMap[*Import]
}

// Imports returns all imports in the order they appear in the file.
func (s *Settings) Imports() []*Import {
	var all []*Import
	for _, m := range []*OrderedMap[*Import]{&s.Resources, &s.Libraries, &s.VariableFiles} {
		all = append(all, m.vals...)
	}
	slices.SortFunc(all, func(a, b *Import) int {
		return cmp.Compare(a.Path.Start, b.Path.Start)
	})
	return all
}

// VariableDefinition is an entry of the Variables table.
type VariableDefinition struct {
	Name   Token
	Values []Token
}

// TestCaseDefinition is an entry of the Test Cases table.
type TestCaseDefinition struct {
	Name          Token
	Documentation []Token
	Tags          []Token
	Setup         *KeywordCall
	Teardown      *KeywordCall
	Template      *KeywordCall
	Timeout       []Token
	Steps         []*KeywordCall
}

// KeywordDefinition is an entry of the Keywords table.
type KeywordDefinition struct {
	Name          Token
	Documentation []Token
	Arguments     []Token
	Return        []Token
	Tags          []Token
	Timeout       []Token
	Teardown      *KeywordCall
	Steps         []*KeywordCall
}

// Model is the structured content of one parsed file.
type Model struct {
	Settings  Settings
	Variables OrderedMap[*VariableDefinition]
	TestCases OrderedMap[*TestCaseDefinition]
	Keywords  OrderedMap[*KeywordDefinition]
}
