package robotide

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// File is the result of parsing one file.
type File struct {
	// Name identifies the file, as given to [Parser.Parse].
	Name string

	// Lines holds every physical line in order.
	Lines []*Line

	Model       *Model
	Diagnostics []Diagnostic

	// Aborted reports that the parse was canceled; Lines and Model hold
	// what was classified before the cancellation.
	Aborted bool
}

// LinesOf iterates over the lines of the given type.
func (f *File) LinesOf(t LineType) iter.Seq[*Line] {
	return func(yield func(*Line) bool) {
		for _, l := range f.Lines {
			if l.Type == t && !yield(l) {
				return
			}
		}
	}
}

// LineAt returns the line containing offset, or nil.
func (f *File) LineAt(offset int) *Line {
	var found *Line
	for _, l := range f.Lines {
		if l.Offset > offset {
			break
		}
		found = l
	}
	return found
}

// HasErrors reports whether any diagnostic has error severity.
func (f *File) HasErrors() bool {
	for _, d := range f.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Parser classifies files. A Parser is safe for concurrent use as long as
// its Config is not modified.
type Parser struct {
	cfg *Config
}

// NewParser returns a Parser using cfg, or [DefaultConfig] if cfg is nil.
func NewParser(cfg *Config) *Parser {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Parser{cfg: cfg}
}

// Config returns the parser's configuration.
func (p *Parser) Config() *Config { return p.cfg }

// Parse parses a file with the default configuration.
func Parse(name, text string) (*File, error) {
	return NewParser(nil).Parse(context.Background(), name, text)
}

// Parse classifies every line of text and builds the file's model.
//
// Malformed input never fails a parse; it is reported in
// File.Diagnostics. An error is returned only if classification itself
// fails, as a [*ParseError]. If ctx is canceled, Parse stops between
// lines and returns the partial result with Aborted set.
func (p *Parser) Parse(ctx context.Context, name, text string) (*File, error) {
	f := &File{Name: name, Model: new(Model)}
	c := &classifier{cfg: p.cfg, file: f, model: f.Model}
	lr := NewLineReader(strings.NewReader(text))
	for {
		if ctx.Err() != nil {
			f.Aborted = true
			break
		}
		raw, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{File: name, Line: raw.Number, Err: err}
		}
		l := &Line{
			Number: raw.Number,
			Offset: raw.Offset,
			Tokens: Split(raw.Text, raw.Offset),
		}
		if err := c.dispatch(l); err != nil {
			return nil, err
		}
		f.Lines = append(f.Lines, l)
	}
	return f, nil
}

// state is the table the classifier is in.
type state int

const (
	stateIgnore state = iota
	stateSetting
	stateVariable
	stateTestcaseInitial
	stateTestcaseActive
	stateKeywordInitial
	stateKeywordActive
)

// classifier holds the state of one parse.
type classifier struct {
	cfg   *Config
	file  *File
	model *Model
	state state

	// cont receives the cells of a continuation line. Every line that is
	// not a continuation resets it.
	cont func([]Token)

	test *TestCaseDefinition
	kw   *KeywordDefinition

	line *Line // line being classified
}

// dispatch classifies one line. A panic in a line handler fails the
// whole parse.
func (c *classifier) dispatch(l *Line) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseError{File: c.file.Name, Line: l.Number, Err: fmt.Errorf("internal error: %v", r)}
		}
	}()
	c.line = l

	cells := dataCells(l.Tokens)
	if len(cells) == 0 {
		// Blank, or only empty cells and a comment.
		c.cont = nil
		l.Type = LineIgnore
		if len(cells) < len(l.Tokens) && l.Tokens[len(l.Tokens)-1].Kind == ArgComment {
			l.Type = LineComment
		}
		return nil
	}
	if strings.HasPrefix(l.Tokens[0].Value, "*") {
		c.table(l)
		return nil
	}

	switch c.state {
	case stateIgnore:
		c.cont = nil
		l.Type = LineIgnore
	case stateSetting:
		c.settingLine(l)
	case stateVariable:
		c.variableLine(l)
	case stateTestcaseInitial, stateTestcaseActive:
		c.bodyLine(l, false)
	case stateKeywordInitial, stateKeywordActive:
		c.bodyLine(l, true)
	default:
		panic(fmt.Sprintf("unknown classifier state %d", c.state))
	}
	return nil
}

// dataCells returns the cells of toks before any comment, or nil if none
// of them holds data.
func dataCells(toks []Token) []Token {
	n := len(toks)
	if n > 0 && toks[n-1].Kind == ArgComment {
		n--
	}
	for _, t := range toks[:n] {
		if !t.IsEmpty() {
			return toks[:n]
		}
	}
	return nil
}

// cells returns the cells of the line being classified, without a
// trailing comment. The result shares its elements with the line.
func cells(l *Line) []Token {
	n := len(l.Tokens)
	if n > 0 && l.Tokens[n-1].Kind == ArgComment {
		n--
	}
	return l.Tokens[:n]
}

func mark(toks []Token, kind ArgumentType) {
	for i := range toks {
		toks[i].Kind = kind
	}
}

// report records a diagnostic unless its class is ignored.
func (c *classifier) report(class Class, start, end int, format string, args ...any) {
	sev := c.cfg.Severity(class)
	if sev == SeverityIgnore {
		return
	}
	c.file.Diagnostics = append(c.file.Diagnostics, Diagnostic{
		Class:    class,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Line:     c.line.Number,
		Start:    start,
		End:      end,
	})
}

// reportSpan reports a diagnostic spanning toks.
func (c *classifier) reportSpan(class Class, toks []Token, format string, args ...any) {
	if len(toks) == 0 {
		return
	}
	c.report(class, toks[0].Start, toks[len(toks)-1].End(), format, args...)
}

// extra marks toks as ignored and warns about them.
func (c *classifier) extra(toks []Token) {
	if len(toks) == 0 {
		return
	}
	mark(toks, ArgIgnored)
	c.reportSpan(ClassExtraArgument, toks, "Extra argument(s) ignored")
}

// table handles a table header line.
func (c *classifier) table(l *Line) {
	c.cont = nil
	c.test, c.kw = nil, nil
	l.Type = LineTable
	toks := cells(l)
	toks[0].Kind = ArgTable
	mark(toks[1:], ArgIgnored)

	header := toks[0]
	t, ok := c.cfg.table(header.Value)
	switch {
	case !ok:
		c.state = stateIgnore
		start, end := tableNameSpan(header)
		c.report(ClassUnknownTable, start, end, "Unknown table %q", strings.Trim(header.Value, "* \t"))
	case t == TableSettings:
		c.state = stateSetting
	case t == TableVariables:
		c.state = stateVariable
	case t == TableTestCases:
		c.state = stateTestcaseInitial
	case t == TableKeywords:
		c.state = stateKeywordInitial
	default:
		c.state = stateIgnore
	}
}

// tableNameSpan returns the span of the name within a table header,
// without the surrounding asterisks and spaces.
func tableNameSpan(header Token) (start, end int) {
	rs := []rune(header.Value)
	i, j := 0, len(rs)
	for i < j && (rs[i] == '*' || isBlank(rs[i])) {
		i++
	}
	for j > i && (rs[j-1] == '*' || isBlank(rs[j-1])) {
		j--
	}
	if i == j {
		return header.Start, header.End()
	}
	return header.Start + i, header.Start + j
}

// continuationMarker returns the index of the "..." marker that makes
// toks a continuation line, or -1.
func continuationMarker(toks []Token) int {
	switch {
	case len(toks) > 0 && toks[0].Value == "...":
		return 0
	case len(toks) > 1 && toks[0].IsEmpty() && toks[1].Value == "...":
		return 1
	}
	return -1
}

// continuation hands the cells after the marker to the continuation
// buffer. The buffer is kept for further continuation lines.
func (c *classifier) continuation(l *Line, marker int) {
	l.Type = LineContinuation
	toks := cells(l)
	mark(toks[:marker+1], ArgIgnored)
	rest := toks[marker+1:]
	if c.cont == nil {
		mark(rest, ArgIgnored)
		c.reportSpan(ClassIgnoredLine, toks, "Continuation line without a preceding row ignored")
		return
	}
	c.cont(rest)
}

// variableLine handles a line of the Variables table.
func (c *classifier) variableLine(l *Line) {
	toks := cells(l)
	if m := continuationMarker(toks); m >= 0 {
		c.continuation(l, m)
		return
	}
	c.cont = nil
	l.Type = LineVariableTable
	if toks[0].IsEmpty() {
		mark(toks, ArgIgnored)
		c.reportSpan(ClassIgnoredLine, toks, "Line ignored: variable name expected in the first column")
		return
	}

	toks[0].Kind = ArgVariableKey
	mark(toks[1:], ArgVariableValue)
	if msg := checkVariableName(toks[0].Value); msg != "" {
		c.reportSpan(ClassMalformedVariable, toks[:1], "%s", msg)
		return
	}
	v := &VariableDefinition{Name: toks[0], Values: clone(toks[1:])}
	// A repeated name is not reported; the first definition is kept.
	c.model.Variables.Add(toks[0], v)
	c.cont = func(more []Token) {
		mark(more, ArgVariableValue)
		v.Values = append(v.Values, more...)
	}
}

// checkVariableName returns a description of what is wrong with a
// variable table name, or "" if it is well formed.
func checkVariableName(name string) string {
	name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "="))
	prefix := strings.HasPrefix(name, "${") || strings.HasPrefix(name, "@{")
	suffix := strings.HasSuffix(name, "}")
	switch {
	case !prefix && !suffix:
		return "Variable name must start with ${ or @{ and end with }"
	case !prefix:
		return "Variable name must start with ${ or @{"
	case !suffix:
		return "Variable name must end with }"
	}
	return ""
}

func clone(toks []Token) []Token {
	if len(toks) == 0 {
		return nil
	}
	return append([]Token(nil), toks...)
}
