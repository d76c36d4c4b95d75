package robotide

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Node is a source of definitions in the import graph: a resource file,
// or a library or variable file. Path is set for files found in the
// workspace; otherwise Name holds the name as imported.
type Node struct {
	Kind ImportKind
	Path string
	Name string
}

func (n Node) String() string {
	if n.Path != "" {
		return fmt.Sprintf("%v %s", n.Kind, n.Path)
	}
	return fmt.Sprintf("%v %s", n.Kind, n.Name)
}

// Interest tells [Resolver.FindMatches] how to go on after a definition.
type Interest int

const (
	// Continue visits the remaining definitions of the file and then the
	// files it imports.
	Continue Interest = iota

	// Stop ends the search at once.
	Stop

	// ContinueToEndOfFile visits the remaining definitions of the current
	// file and then ends the search.
	ContinueToEndOfFile

	// ContinueToEndOfPriority visits the remaining definitions of every
	// file at the current priority level, then ends the search. It lets a
	// visitor that found a candidate look for a better one that shadows
	// it.
	ContinueToEndOfPriority
)

// Definition is a definition found by the resolver.
type Definition struct {
	// Name is the defining token. For symbols from an index it is a
	// synthetic token at offset zero.
	Name Token

	// File and Line locate the definition; both are nil for symbols from
	// an index.
	File *File
	Line *Line

	Node Node

	// Priority is the number of imports between the start file and the
	// definition. Definitions of the start file have priority zero and
	// shadow all others.
	Priority int
}

// Visitor receives the definitions found by [Resolver.FindMatches].
type Visitor interface {
	Visit(d Definition) Interest
}

// VisitorFunc adapts a function to the [Visitor] interface.
type VisitorFunc func(d Definition) Interest

func (f VisitorFunc) Visit(d Definition) Interest { return f(d) }

// Outcome tells why [Resolver.FindMatches] returned.
type Outcome int

const (
	Exhausted Outcome = iota // every reachable definition was visited
	Stopped                  // the visitor ended the search
	Canceled                 // the context was canceled
)

func (o Outcome) String() string {
	switch o {
	case Exhausted:
		return "exhausted"
	case Stopped:
		return "stopped"
	case Canceled:
		return "canceled"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Resolver walks the import graph of a file to find definitions.
type Resolver struct {
	Source    Source
	Workspace Workspace

	// Config provides the implicit libraries. Nil means DefaultConfig.
	Config *Config

	// Logger receives debug messages about imports that contribute
	// nothing. Nil discards them.
	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// FindMatches visits the definitions of the given kind reachable from
// the file start: lines of type LineKeywordBegin, LineVariableTable or
// LineTestcaseBegin, plus for the first two the symbols of imported
// libraries and variable files.
//
// Files are visited breadth first. A file's own definitions come first,
// then those of the files it imports, then theirs, and so on. Within a
// priority level files are visited in import order. Every file is
// visited at most once, however many times it is imported.
//
// Files that cannot be found or parsed contribute nothing.
func (r *Resolver) FindMatches(ctx context.Context, start string, kind LineType, v Visitor) Outcome {
	first := Node{Kind: ImportResource, Path: start}
	level := []Node{first}
	seen := map[Node]bool{first: true}
	log := r.logger()

	for prio := 0; len(level) > 0; prio++ {
		var next []Node
		endOfLevel := false
		for _, n := range level {
			if ctx.Err() != nil {
				return Canceled
			}
			w := walk{ctx: ctx, r: r, kind: kind, v: v, node: n, prio: prio, log: log}
			imports, in := w.visit()
			switch in {
			case Stop, ContinueToEndOfFile:
				if ctx.Err() != nil {
					return Canceled
				}
				return Stopped
			case ContinueToEndOfPriority:
				endOfLevel = true
			}
			if prio == 0 {
				imports = append(imports, r.implicitLibraries()...)
			}
			for _, m := range imports {
				if !seen[m] {
					seen[m] = true
					next = append(next, m)
				}
			}
		}
		if endOfLevel {
			return Stopped
		}
		level = next
	}
	return Exhausted
}

func (r *Resolver) implicitLibraries() []Node {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var nodes []Node
	for _, lib := range cfg.ImplicitLibraries {
		nodes = append(nodes, Node{Kind: ImportLibrary, Name: lib})
	}
	return nodes
}

// walk visits the definitions of a single node.
type walk struct {
	ctx  context.Context
	r    *Resolver
	kind LineType
	v    Visitor
	node Node
	prio int
	log  *slog.Logger
}

// visit feeds the node's definitions to the visitor and returns the
// nodes it imports along with the strongest interest the visitor
// expressed. Stop ends the visit early.
func (w *walk) visit() ([]Node, Interest) {
	if w.node.Kind != ImportResource {
		return nil, w.visitSymbols()
	}

	f, err := w.r.Source.Get(w.ctx, w.node.Path)
	if err != nil {
		w.log.Debug("resource contributes nothing", "file", w.node.Path, "err", err)
		return nil, Continue
	}
	if f.Aborted {
		return nil, Stop
	}

	in := Continue
	for l := range f.LinesOf(w.kind) {
		tok := l.First()
		if !isDefinition(tok.Kind) || tok.Kind == ArgVariableKey && checkVariableName(tok.Value) != "" {
			continue
		}
		switch got := w.v.Visit(Definition{Name: tok, File: f, Line: l, Node: w.node, Priority: w.prio}); got {
		case Stop:
			return nil, Stop
		case ContinueToEndOfFile, ContinueToEndOfPriority:
			in = stronger(in, got)
		}
	}
	return w.imports(f), in
}

// stronger returns whichever interest ends the search sooner.
func stronger(a, b Interest) Interest {
	rank := func(i Interest) int {
		switch i {
		case Stop:
			return 3
		case ContinueToEndOfFile:
			return 2
		case ContinueToEndOfPriority:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func isDefinition(k ArgumentType) bool {
	return k == ArgNewKeyword || k == ArgNewTestCase || k == ArgVariableKey
}

// visitSymbols feeds the symbols of a library or variable file index to
// the visitor.
func (w *walk) visitSymbols() Interest {
	var kind ArgumentType
	switch {
	case w.node.Kind == ImportLibrary && w.kind == LineKeywordBegin:
		kind = ArgNewKeyword
	case w.node.Kind == ImportVariables && w.kind == LineVariableTable:
		kind = ArgVariableKey
	default:
		return Continue
	}
	name := w.node.Path
	if name == "" {
		name = w.node.Name
	}
	idx, ok := w.r.Workspace.Symbols(w.node.Kind, name)
	if !ok {
		w.log.Debug("no symbol index", "import", w.node)
		return Continue
	}
	in := Continue
	for _, sym := range idx.Symbols {
		switch got := w.v.Visit(Definition{Name: synthetic(sym, kind), Node: w.node, Priority: w.prio}); got {
		case Stop:
			return Stop
		case ContinueToEndOfFile, ContinueToEndOfPriority:
			in = stronger(in, got)
		}
	}
	return in
}

// imports returns the nodes imported by f, in the order they appear.
func (w *walk) imports(f *File) []Node {
	var nodes []Node
	for _, imp := range f.Model.Settings.Imports() {
		p := importPath(imp.Path.Value, f.Name)
		resolved, ok := w.r.Workspace.ResolveRelative(f.Name, p)
		switch {
		case ok:
			nodes = append(nodes, Node{Kind: imp.Kind, Path: resolved})
		case imp.Kind == ImportResource:
			w.log.Debug("unresolved resource", "file", f.Name, "path", p)
		default:
			nodes = append(nodes, Node{Kind: imp.Kind, Name: p})
		}
	}
	return nodes
}

// importPath returns the path of an import with escapes interpreted and
// ${CURDIR} replaced by the directory of the importing file. The result
// of a replacement starts with a slash, making it relative to the
// workspace root.
func importPath(raw, from string) string {
	p := Unescape(raw)
	if strings.Contains(p, "${CURDIR}") {
		p = strings.ReplaceAll(p, "${CURDIR}", "/"+path.Dir(from))
	}
	return p
}
