package robotide

import "strings"

// settingLine handles a line of the Settings table.
func (c *classifier) settingLine(l *Line) {
	toks := cells(l)
	if m := continuationMarker(toks); m >= 0 {
		c.continuation(l, m)
		return
	}
	c.cont = nil
	l.Type = LineSettingTable
	if toks[0].IsEmpty() {
		mark(toks, ArgIgnored)
		c.reportSpan(ClassIgnoredLine, toks, "Line ignored: setting name expected in the first column")
		return
	}

	toks[0].Kind = ArgSettingKey
	args := toks[1:]
	s := &c.model.Settings

	switch settingName(toks[0].Value) {
	case "resource":
		c.importFile(ImportResource, args)
	case "variables":
		c.importFile(ImportVariables, args)
	case "library":
		c.importFile(ImportLibrary, args)
	case "suitesetup", "suiteprecondition":
		s.SuiteSetup = c.settingCall(args)
	case "suiteteardown", "suitepostcondition":
		s.SuiteTeardown = c.settingCall(args)
	case "testsetup", "testprecondition", "tasksetup":
		s.TestSetup = c.settingCall(args)
	case "testteardown", "testpostcondition", "taskteardown":
		s.TestTeardown = c.settingCall(args)
	case "testtemplate", "tasktemplate":
		s.TestTemplate = c.templateCall(args)
	case "testtimeout", "tasktimeout":
		s.TestTimeout = c.values(args, 2)
	case "documentation":
		c.valueList(&s.Documentation, args)
	case "forcetags":
		c.valueList(&s.ForceTags, args)
	case "defaulttags":
		c.valueList(&s.DefaultTags, args)
	case "metadata":
		c.metadata(args)
	default:
		mark(args, ArgIgnored)
		c.reportSpan(ClassUnknownSetting, toks[:1], "Unknown setting %q", toks[0].Value)
	}
}

// settingName normalizes a setting name: case, spaces, underscores and a
// trailing colon are ignored.
func settingName(s string) string {
	return normalizeName(strings.TrimSuffix(strings.TrimSpace(s), ":"))
}

// importFile records a Resource, Variables or Library import.
// Importing the same name twice is reported and the second import is
// dropped.
func (c *classifier) importFile(kind ImportKind, args []Token) {
	if len(args) == 0 {
		return
	}
	args[0].Kind = ArgSettingFile
	imp := &Import{Kind: kind}
	rest := args[1:]

	switch kind {
	case ImportResource:
		c.extra(rest)
		rest = nil
	case ImportLibrary:
		if i := withName(rest); i >= 0 {
			rest[i].Kind = ArgSettingFileWithNameKey
			if i+1 < len(rest) {
				rest[i+1].Kind = ArgSettingFileWithNameValue
				imp.Alias = rest[i+1]
				c.extra(rest[i+2:])
			}
			rest = rest[:i]
		}
	}
	mark(rest, ArgSettingFileArg)
	imp.Path = args[0]
	imp.Args = clone(rest)

	key := imp.Path
	if imp.Alias.Value != "" {
		key = imp.Alias
	}
	var m *OrderedMap[*Import]
	switch kind {
	case ImportResource:
		m = &c.model.Settings.Resources
	case ImportLibrary:
		m = &c.model.Settings.Libraries
	case ImportVariables:
		m = &c.model.Settings.VariableFiles
	}
	if !m.Add(key, imp) {
		c.reportSpan(ClassDuplicateImport, []Token{key}, "Duplicate %s import %q ignored", strings.ToLower(kind.String()), imp.Name())
		return
	}
	if kind != ImportResource {
		c.cont = func(more []Token) {
			mark(more, ArgSettingFileArg)
			imp.Args = append(imp.Args, more...)
		}
	}
}

// withName returns the index of the WITH NAME marker in library
// arguments, or -1.
func withName(args []Token) int {
	for i, t := range args {
		if t.Value == "WITH NAME" || t.Value == "AS" {
			return i
		}
	}
	return -1
}

// settingCall parses the keyword call of a setup or teardown setting.
// Continuation lines add arguments to the call.
func (c *classifier) settingCall(args []Token) *KeywordCall {
	if len(args) == 0 {
		return nil
	}
	return c.call(args, false)
}

// templateCall parses a template setting, which names a keyword and takes
// no arguments.
func (c *classifier) templateCall(args []Token) *KeywordCall {
	if len(args) == 0 {
		return nil
	}
	args[0].Kind = ArgKeywordCall
	c.extra(args[1:])
	return &KeywordCall{Keyword: args[0]}
}

// values accepts at most max setting values and warns about the rest.
func (c *classifier) values(args []Token, max int) []Token {
	if len(args) > max {
		c.extra(args[max:])
		args = args[:max]
	}
	mark(args, ArgSettingValue)
	return clone(args)
}

// valueList appends setting values to *dst, now and on continuation
// lines.
func (c *classifier) valueList(dst *[]Token, args []Token) {
	add := func(more []Token) {
		mark(more, ArgSettingValue)
		*dst = append(*dst, more...)
	}
	add(args)
	c.cont = add
}

// metadata records a Metadata setting. Repeated names are reported and
// the first value is kept.
func (c *classifier) metadata(args []Token) {
	mark(args, ArgSettingValue)
	if len(args) == 0 {
		return
	}
	value := clone(args[1:])
	if !c.model.Settings.Metadata.Add(args[0], value) {
		c.reportSpan(ClassDuplicateMetadata, args[:1], "Duplicate metadata %q ignored", args[0].Value)
		return
	}
	name := args[0].Value
	c.cont = func(more []Token) {
		mark(more, ArgSettingValue)
		value = append(value, more...)
		c.model.Settings.Metadata.set(name, value)
	}
}
