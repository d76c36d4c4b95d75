package robotide

import (
	"fmt"
	"strings"
)

// Severity is the level a diagnostic is reported at.
// SeverityIgnore suppresses the diagnostic entirely.
type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

var severityNames = [...]string{
	SeverityIgnore:  "ignore",
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
}

func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity parses the name of a severity as written by String.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Class identifies the kind of problem a diagnostic reports.
// Each class has its own configurable severity.
type Class int

const (
	ClassUnknownTable Class = iota
	ClassIgnoredLine
	ClassExtraArgument
	ClassDuplicateImport
	ClassDuplicateMetadata
	ClassDuplicateTestCase
	ClassDuplicateKeyword
	ClassMalformedVariable
	ClassUnknownSetting
	numClasses
)

var classNames = [...]string{
	ClassUnknownTable:      "unknown-table",
	ClassIgnoredLine:       "ignored-line",
	ClassExtraArgument:     "extra-argument",
	ClassDuplicateImport:   "duplicate-import",
	ClassDuplicateMetadata: "duplicate-metadata",
	ClassDuplicateTestCase: "duplicate-testcase",
	ClassDuplicateKeyword:  "duplicate-keyword",
	ClassMalformedVariable: "malformed-variable",
	ClassUnknownSetting:    "unknown-setting",
}

func (c Class) String() string {
	if c >= 0 && c < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ParseClass parses the name of a diagnostic class as written by String.
func ParseClass(s string) (Class, error) {
	for i, name := range classNames {
		if strings.EqualFold(s, name) {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown diagnostic class %q", s)
}

// Diagnostic is a problem found while classifying a file.
// Diagnostics never stop a parse.
type Diagnostic struct {
	Class    Class
	Severity Severity
	Message  string

	// Line is the line number (1-indexed).
	Line int

	// Start and End are absolute offsets in code points.
	Start, End int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s", d.Line, d.Severity, d.Message)
}

// Markers is implemented by hosts that display diagnostics,
// such as an editor's problem markers.
type Markers interface {
	// Emit adds a diagnostic to the named file.
	Emit(file string, d Diagnostic)

	// Clear removes all diagnostics from the named file.
	Clear(file string)
}

// Publish replaces the diagnostics of f.Name in m with those of f.
func Publish(m Markers, f *File) {
	m.Clear(f.Name)
	for _, d := range f.Diagnostics {
		if d.Severity == SeverityIgnore {
			continue
		}
		m.Emit(f.Name, d)
	}
}
