package robotide

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table identifies one of the top-level sections of a file.
type Table int

const (
	TableNone Table = iota
	TableSettings
	TableVariables
	TableTestCases
	TableKeywords
)

var tableNames = [...]string{
	TableNone:      "none",
	TableSettings:  "setting",
	TableVariables: "variable",
	TableTestCases: "testcase",
	TableKeywords:  "keyword",
}

func (t Table) String() string {
	if t >= 0 && int(t) < len(tableNames) {
		return tableNames[t]
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

func parseTable(s string) (Table, error) {
	for i, name := range tableNames {
		if strings.EqualFold(s, name) {
			return Table(i), nil
		}
	}
	return 0, fmt.Errorf("unknown table kind %q", s)
}

// AllArguments in [Config.KeywordArguments] marks keywords whose every
// argument is a keyword call, separated by AND.
const AllArguments = -1

// Config controls classification. Create one with [DefaultConfig] or
// [LoadConfig] and pass it to [NewParser]; a Config must not be modified
// while a parser uses it.
type Config struct {
	// Tables maps table header names to tables. Keys are compared
	// after normalization: case, surrounding asterisks, repeated spaces
	// and a plural "s" are ignored. Lines of a TableNone table are
	// skipped without a diagnostic.
	Tables map[string]Table

	// Severities holds the severity of each diagnostic class.
	// Classes missing from the map are reported as warnings.
	Severities map[Class]Severity

	// KeywordArguments maps names of keywords that run other keywords to
	// the index of the argument that names the keyword to run, or
	// AllArguments. Names are compared ignoring case, spaces and
	// underscores.
	KeywordArguments map[string]int

	// ImplicitLibraries are imported into every file without a Library
	// setting.
	ImplicitLibraries []string
}

// DefaultConfig returns the configuration matching the test framework's
// own behavior.
func DefaultConfig() *Config {
	return &Config{
		Tables: map[string]Table{
			"setting":      TableSettings,
			"metadata":     TableSettings,
			"variable":     TableVariables,
			"test case":    TableTestCases,
			"testcase":     TableTestCases,
			"task":         TableTestCases,
			"keyword":      TableKeywords,
			"user keyword": TableKeywords,
			"comment":      TableNone,
		},
		Severities: map[Class]Severity{
			ClassUnknownTable:      SeverityWarning,
			ClassIgnoredLine:       SeverityWarning,
			ClassExtraArgument:     SeverityWarning,
			ClassDuplicateImport:   SeverityWarning,
			ClassDuplicateMetadata: SeverityWarning,
			ClassDuplicateTestCase: SeverityWarning,
			ClassDuplicateKeyword:  SeverityWarning,
			ClassMalformedVariable: SeverityError,
			ClassUnknownSetting:    SeverityWarning,
		},
		KeywordArguments: map[string]int{
			"runkeyword":                         0,
			"runkeywordandcontinueonfailure":     0,
			"runkeywordandignoreerror":           0,
			"runkeywordandreturn":                0,
			"runkeywordandreturnstatus":          0,
			"runkeywordandexpecterror":           1,
			"runkeywordandreturnif":              1,
			"runkeywordif":                       1,
			"runkeywordunless":                   1,
			"runkeywordiftestfailed":             0,
			"runkeywordiftestpassed":             0,
			"runkeywordifalltestspassed":         0,
			"runkeywordifanytestsfailed":         0,
			"runkeywordiftimeoutoccurred":        0,
			"runkeywordifallcriticaltestspassed": 0,
			"runkeywordifanycriticaltestsfailed": 0,
			"repeatkeyword":                      1,
			"waituntilkeywordsucceeds":           2,
			"runkeywords":                        AllArguments,
			"runkeywordandwarnonfailure":         0,
			"runkeywordvariant":                  0,
		},
		ImplicitLibraries: []string{"BuiltIn"},
	}
}

// Severity returns the configured severity of class.
func (c *Config) Severity(class Class) Severity {
	if s, ok := c.Severities[class]; ok {
		return s
	}
	return SeverityWarning
}

// table looks up a table header name.
func (c *Config) table(name string) (Table, bool) {
	want := normalizeTableName(name)
	if want == "" {
		return TableNone, false
	}
	if t, ok := c.Tables[want]; ok {
		return t, true
	}
	for k, t := range c.Tables {
		if normalizeTableName(k) == want {
			return t, true
		}
	}
	return TableNone, false
}

// keywordArgument returns the position of the keyword-name argument of
// the named keyword.
func (c *Config) keywordArgument(name string) (int, bool) {
	i, ok := c.KeywordArguments[normalizeName(name)]
	return i, ok
}

// normalizeTableName strips asterisks and surrounding spaces, folds case,
// collapses inner whitespace and drops a plural "s".
func normalizeTableName(s string) string {
	s = strings.Trim(s, "* \t")
	s = strings.Join(strings.Fields(fold(s)), " ")
	return strings.TrimSuffix(s, "s")
}

// configFile is the YAML form of a Config.
type configFile struct {
	Tables            map[string]string `yaml:"tables"`
	Severities        map[string]string `yaml:"severities"`
	KeywordArguments  map[string]int    `yaml:"keywordArguments"`
	ImplicitLibraries []string          `yaml:"implicitLibraries"`
}

// LoadConfig reads a YAML configuration and applies it on top of
// [DefaultConfig]. For example:
//
//	tables:
//	  task: testcase
//	severities:
//	  ignored-line: ignore
//	keywordArguments:
//	  my run keyword: 0
//	implicitLibraries: [BuiltIn, Collections]
//
// An empty document yields the default configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	var f configFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	c := DefaultConfig()
	for name, kind := range f.Tables {
		t, err := parseTable(kind)
		if err != nil {
			return nil, fmt.Errorf("config: tables: %w", err)
		}
		c.Tables[normalizeTableName(name)] = t
	}
	for name, level := range f.Severities {
		class, err := ParseClass(name)
		if err != nil {
			return nil, fmt.Errorf("config: severities: %w", err)
		}
		sev, err := ParseSeverity(level)
		if err != nil {
			return nil, fmt.Errorf("config: severities: %s: %w", name, err)
		}
		c.Severities[class] = sev
	}
	for name, i := range f.KeywordArguments {
		if i < AllArguments {
			return nil, fmt.Errorf("config: keywordArguments: %s: invalid position %d", name, i)
		}
		c.KeywordArguments[normalizeName(name)] = i
	}
	if f.ImplicitLibraries != nil {
		c.ImplicitLibraries = f.ImplicitLibraries
	}
	return c, nil
}
