package robotide

import (
	"slices"
	"strings"
)

// bodyLine handles a line of the Test Cases or Keywords table.
func (c *classifier) bodyLine(l *Line, keywords bool) {
	toks := cells(l)
	if m := continuationMarker(toks); m >= 0 {
		c.continuation(l, m)
		return
	}
	c.cont = nil

	if toks[0].IsEmpty() {
		if c.state == stateTestcaseInitial || c.state == stateKeywordInitial {
			mark(toks, ArgIgnored)
			if keywords {
				l.Type = LineKeywordIgnore
				c.reportSpan(ClassIgnoredLine, toks, "Line ignored: keyword name expected in the first column")
			} else {
				l.Type = LineTestcaseIgnore
				c.reportSpan(ClassIgnoredLine, toks, "Line ignored: test case name expected in the first column")
			}
			return
		}
		l.Type = LineTestcaseStep
		if keywords {
			l.Type = LineKeywordStep
		}
		c.step(toks)
		return
	}

	name := toks[0]
	if keywords {
		l.Type = LineKeywordBegin
		toks[0].Kind = ArgNewKeyword
		name.Kind = ArgNewKeyword
		c.state = stateKeywordActive
		c.test, c.kw = nil, &KeywordDefinition{Name: name}
		if !c.model.Keywords.Add(name, c.kw) {
			c.reportSpan(ClassDuplicateKeyword, toks[:1], "Duplicate keyword %q ignored", name.Value)
		}
	} else {
		l.Type = LineTestcaseBegin
		toks[0].Kind = ArgNewTestCase
		name.Kind = ArgNewTestCase
		c.state = stateTestcaseActive
		c.test, c.kw = &TestCaseDefinition{Name: name}, nil
		if !c.model.TestCases.Add(name, c.test) {
			c.reportSpan(ClassDuplicateTestCase, toks[:1], "Duplicate test case %q ignored", name.Value)
		}
	}
	c.step(toks[1:])
}

// step classifies the cells of one step of the current test case or
// keyword. Steps of a duplicate definition are classified but belong to
// no model entry.
func (c *classifier) step(toks []Token) {
	for len(toks) > 0 && toks[0].IsEmpty() {
		if toks[0].Value == `\` {
			toks[0].Kind = ArgForPart
		} else {
			toks[0].Kind = ArgIgnored
		}
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return
	}

	first := toks[0].Value
	switch {
	case isBracketSetting(first):
		c.bodySetting(toks)
	case isForLoop(first):
		c.forLoop(toks)
	case first == "END":
		toks[0].Kind = ArgForPart
		c.extra(toks[1:])
	case c.templated():
		mark(toks, ArgKeywordArg)
		kc := &KeywordCall{Args: clone(toks)}
		if t := c.template(); t != nil {
			kc.Keyword = t.Keyword
		}
		c.addStep(kc)
		c.cont = func(more []Token) {
			mark(more, ArgKeywordArg)
			kc.Args = append(kc.Args, more...)
		}
	default:
		c.addStep(c.call(toks, true))
	}
}

func (c *classifier) addStep(kc *KeywordCall) {
	switch {
	case c.test != nil:
		c.test.Steps = append(c.test.Steps, kc)
	case c.kw != nil:
		c.kw.Steps = append(c.kw.Steps, kc)
	}
}

// template returns the template in effect for the current test case.
func (c *classifier) template() *KeywordCall {
	if c.test == nil {
		return nil
	}
	if c.test.Template != nil {
		return c.test.Template
	}
	return c.model.Settings.TestTemplate
}

// templated reports whether steps of the current test case are template
// data rather than keyword calls. A [Template] of NONE turns a suite
// template off.
func (c *classifier) templated() bool {
	t := c.template()
	return t != nil && t.Keyword.Value != "" && !strings.EqualFold(t.Keyword.Value, "NONE")
}

// call classifies a keyword call: optional assigned variables, the
// keyword name and its arguments. Continuation lines add arguments.
func (c *classifier) call(toks []Token, assign bool) *KeywordCall {
	kc := new(KeywordCall)
	i := 0
	if assign {
		for i < len(toks) && isAssignment(toks[i].Value) {
			toks[i].Kind = ArgKeywordLValue
			i++
		}
		kc.Assign = clone(toks[:i])
	}

	var m *callMarker
	if i < len(toks) {
		toks[i].Kind = ArgKeywordCall
		kc.Keyword = toks[i]
		m = newCallMarker(c.cfg, kc.Keyword.Value)
		i++
	}
	add := func(args []Token) {
		mark(args, ArgKeywordArg)
		if m != nil {
			m.mark(args)
		}
		kc.Args = append(kc.Args, args...)
	}
	add(toks[i:])
	c.cont = add
	return kc
}

// isAssignment reports whether a step cell assigns the keyword's return
// value: a scalar, list or dictionary variable, optionally followed by
// "=".
func isAssignment(s string) bool {
	s = strings.TrimSpace(strings.TrimSuffix(s, "="))
	if len(s) < 3 || !strings.HasSuffix(s, "}") {
		return false
	}
	switch s[:2] {
	case "${", "@{", "&{":
		return true
	}
	return false
}

// callMarker finds the keyword names among the arguments of keywords that
// run other keywords, such as Run Keyword If. The arguments may arrive
// over several continuation lines.
type callMarker struct {
	cfg *Config

	pos      int  // position of the keyword argument
	all      bool // every argument is a keyword, separated by AND if any
	branches bool // ELSE and ELSE IF start new branches

	n      int  // arguments seen in the current branch
	sawAnd bool // AND separates the keywords of an all-keyword call
	nextKw bool // the next argument names a keyword (all only)
	nested *callMarker
}

// newCallMarker returns a marker for calls of the named keyword, or nil
// if it takes no keyword arguments.
func newCallMarker(cfg *Config, name string) *callMarker {
	pos, ok := cfg.keywordArgument(name)
	if !ok {
		return nil
	}
	return &callMarker{
		cfg:      cfg,
		pos:      pos,
		all:      pos == AllArguments,
		branches: normalizeName(name) == "runkeywordif",
		nextKw:   true,
	}
}

func (m *callMarker) mark(args []Token) {
	if m.all && !m.sawAnd {
		m.sawAnd = slices.ContainsFunc(args, func(t Token) bool { return t.Value == "AND" })
	}
	for i := range args {
		m.add(&args[i])
	}
}

func (m *callMarker) add(t *Token) {
	if m.all {
		switch {
		case !m.sawAnd:
			t.Kind = ArgKeywordCallDynamic
		case t.Value == "AND":
			m.nested, m.nextKw = nil, true
		case m.nextKw:
			t.Kind = ArgKeywordCallDynamic
			m.nested, m.nextKw = newCallMarker(m.cfg, t.Value), false
		case m.nested != nil:
			m.nested.add(t)
		}
		return
	}
	if m.branches {
		switch t.Value {
		case "ELSE":
			m.nested, m.n = nil, m.pos
			return
		case "ELSE IF":
			m.nested, m.n = nil, m.pos-1
			return
		}
	}
	if m.nested != nil {
		m.nested.add(t)
		return
	}
	if m.n == m.pos {
		t.Kind = ArgKeywordCallDynamic
		m.nested = newCallMarker(m.cfg, t.Value)
	}
	m.n++
}

// isBracketSetting reports whether s is a test case or keyword setting
// such as [Documentation].
func isBracketSetting(s string) bool {
	return len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// isForLoop reports whether s starts a for loop: FOR, or the older :FOR
// in any case and spacing.
func isForLoop(s string) bool {
	return s == "FOR" || normalizeName(s) == ":for"
}

// forLoop classifies a for loop header: the loop variables, the IN
// marker and the values iterated over.
func (c *classifier) forLoop(toks []Token) {
	toks[0].Kind = ArgForPart
	rest := toks[1:]
	for i := range rest {
		if isInMarker(rest[i].Value) {
			rest[i].Kind = ArgForPart
			mark(rest[i+1:], ArgKeywordArg)
			break
		}
		rest[i].Kind = ArgKeywordLValue
	}
	c.cont = func(more []Token) { mark(more, ArgKeywordArg) }
}

func isInMarker(s string) bool {
	switch normalizeName(s) {
	case "in", "inrange", "inenumerate", "inzip":
		return true
	}
	return false
}

// bodySetting handles a bracketed setting in a test case or keyword.
func (c *classifier) bodySetting(toks []Token) {
	key := toks[0].Value
	toks[0].Kind = ArgSettingKey
	args := toks[1:]
	name := normalizeName(key[1 : len(key)-1])

	if tc := c.test; tc != nil {
		switch name {
		case "documentation":
			c.valueList(&tc.Documentation, args)
		case "tags":
			c.valueList(&tc.Tags, args)
		case "setup", "precondition":
			tc.Setup = c.settingCall(args)
		case "teardown", "postcondition":
			tc.Teardown = c.settingCall(args)
		case "timeout":
			tc.Timeout = c.values(args, 2)
		case "template":
			tc.Template = c.templateCall(args)
		default:
			c.unknownBodySetting(toks)
		}
		return
	}
	if kw := c.kw; kw != nil {
		switch name {
		case "documentation":
			c.valueList(&kw.Documentation, args)
		case "arguments":
			c.valueList(&kw.Arguments, args)
		case "return":
			c.valueList(&kw.Return, args)
		case "tags":
			c.valueList(&kw.Tags, args)
		case "teardown":
			kw.Teardown = c.settingCall(args)
		case "timeout":
			kw.Timeout = c.values(args, 2)
		default:
			c.unknownBodySetting(toks)
		}
	}
}

func (c *classifier) unknownBodySetting(toks []Token) {
	mark(toks[1:], ArgIgnored)
	c.reportSpan(ClassUnknownSetting, toks[:1], "Unknown setting %q", toks[0].Value)
}
