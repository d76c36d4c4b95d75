package robotide

import (
	"fmt"
	"unicode/utf8"
)

// ArgumentType classifies a single cell of a line.
// The splitter leaves every token as ArgIgnored; the classifier sets the
// final type once.
type ArgumentType int

const (
	ArgIgnored ArgumentType = iota
	ArgComment
	ArgTable
	ArgSettingKey
	ArgSettingValue
	ArgSettingFile
	ArgSettingFileArg
	ArgSettingFileWithNameKey
	ArgSettingFileWithNameValue
	ArgVariableKey
	ArgVariableValue
	ArgNewTestCase
	ArgNewKeyword
	ArgKeywordLValue
	ArgKeywordCall
	ArgKeywordCallDynamic
	ArgKeywordArg
	ArgForPart
)

var argumentTypeNames = [...]string{
	ArgIgnored:                  "Ignored",
	ArgComment:                  "Comment",
	ArgTable:                    "Table",
	ArgSettingKey:               "SettingKey",
	ArgSettingValue:             "SettingValue",
	ArgSettingFile:              "SettingFile",
	ArgSettingFileArg:           "SettingFileArg",
	ArgSettingFileWithNameKey:   "SettingFileWithNameKey",
	ArgSettingFileWithNameValue: "SettingFileWithNameValue",
	ArgVariableKey:              "VariableKey",
	ArgVariableValue:            "VariableValue",
	ArgNewTestCase:              "NewTestCase",
	ArgNewKeyword:               "NewKeyword",
	ArgKeywordLValue:            "KeywordLValue",
	ArgKeywordCall:              "KeywordCall",
	ArgKeywordCallDynamic:       "KeywordCallDynamic",
	ArgKeywordArg:               "KeywordArg",
	ArgForPart:                  "ForPart",
}

func (t ArgumentType) String() string {
	if t >= 0 && int(t) < len(argumentTypeNames) {
		return argumentTypeNames[t]
	}
	return fmt.Sprintf("ArgumentType(%d)", int(t))
}

// Token is one cell of a line, positioned in the file it came from.
//
// Tokens are produced by [Split] and are not meant to be built manually,
// except for synthetic definitions such as library keywords, which have
// ArgIndex -1 and offset zero.
type Token struct {
	// Value is the raw cell text. Escapes are not interpreted; use
	// [Unescape] to get the literal value.
	Value string

	// Start is the absolute offset of the first character of the cell,
	// counted in Unicode code points from the start of the file.
	Start int

	// ArgIndex is the position of the cell within its line, or -1 for
	// tokens that do not come from a line.
	ArgIndex int

	// Kind is set by the classifier.
	Kind ArgumentType

	// TrailingSeparator reports whether a cell separator follows the
	// cell in the source line.
	TrailingSeparator bool
}

// End returns the offset just past the last character of the token.
func (t Token) End() int {
	return t.Start + utf8.RuneCountInString(t.Value)
}

// Len returns the length of the token in code points.
func (t Token) Len() int {
	return utf8.RuneCountInString(t.Value)
}

// IsEmpty reports whether the cell holds no data: either nothing at all
// or the lone empty-cell marker `\`.
func (t Token) IsEmpty() bool {
	return t.Value == "" || t.Value == `\`
}

// Contains reports whether offset lies within the token or at its end.
func (t Token) Contains(offset int) bool {
	return offset >= t.Start && offset <= t.End()
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d(%q)", t.Kind, t.Start, t.Value)
}

// synthetic returns a token for a definition that has no source line.
func synthetic(name string, kind ArgumentType) Token {
	return Token{Value: name, ArgIndex: -1, Kind: kind}
}
