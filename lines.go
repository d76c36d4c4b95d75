package robotide

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// LineType classifies a whole line.
type LineType int

const (
	LineIgnore LineType = iota
	LineComment
	LineContinuation
	LineTable
	LineSettingTable
	LineVariableTable
	LineTestcaseIgnore
	LineTestcaseBegin
	LineTestcaseStep
	LineKeywordIgnore
	LineKeywordBegin
	LineKeywordStep
)

var lineTypeNames = [...]string{
	LineIgnore:         "Ignore",
	LineComment:        "Comment",
	LineContinuation:   "Continuation",
	LineTable:          "Table",
	LineSettingTable:   "SettingTable",
	LineVariableTable:  "VariableTable",
	LineTestcaseIgnore: "TestcaseIgnore",
	LineTestcaseBegin:  "TestcaseBegin",
	LineTestcaseStep:   "TestcaseStep",
	LineKeywordIgnore:  "KeywordIgnore",
	LineKeywordBegin:   "KeywordBegin",
	LineKeywordStep:    "KeywordStep",
}

func (t LineType) String() string {
	if t >= 0 && int(t) < len(lineTypeNames) {
		return lineTypeNames[t]
	}
	return fmt.Sprintf("LineType(%d)", int(t))
}

// Line is one classified physical line of a file.
type Line struct {
	// Number is the line number (1-indexed).
	Number int

	// Offset is the offset of the first character of the line within
	// the file, in code points.
	Offset int

	Tokens []Token
	Type   LineType
}

// First returns the first token of the line, or the zero Token if the
// line is blank.
func (l *Line) First() Token {
	if len(l.Tokens) == 0 {
		return Token{ArgIndex: -1}
	}
	return l.Tokens[0]
}

// TokenAt returns the index of the token that contains offset, or -1.
func (l *Line) TokenAt(offset int) int {
	for i, t := range l.Tokens {
		if t.Contains(offset) {
			return i
		}
	}
	return -1
}

// RawLine is a physical line as read by a [LineReader].
type RawLine struct {
	Number int    // line number (1-indexed)
	Offset int    // offset of the first character, in code points
	Text   string // line text without its terminator
}

// LineReader reads physical lines and tracks their positions.
type LineReader struct {
	r      *bufio.Reader
	line   int // current line number (1-indexed)
	offset int // code points consumed so far
	done   bool
}

// NewLineReader creates a new LineReader that reads from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next line of input. It returns io.EOF when there are
// no more lines. A final line without a terminator is still returned;
// input ending with a newline does not produce an extra empty line.
func (lr *LineReader) Next() (RawLine, error) {
	if lr.done {
		return RawLine{}, io.EOF
	}
	s, err := lr.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return RawLine{Number: lr.line + 1}, err
		}
		lr.done = true
		if s == "" {
			return RawLine{}, io.EOF
		}
	}
	lr.line++
	rl := RawLine{Number: lr.line, Offset: lr.offset}
	lr.offset += utf8.RuneCountInString(s)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	rl.Text = s
	return rl, nil
}
