// Package robotide provides editor support for tabular test files: the
// plain-text format of Robot Framework suites and resource files.
//
// A file is a sequence of tables. Each table starts with a header line
// whose first cell begins with an asterisk. Cells are separated by a tab
// or by two or more spaces:
//
//	*** Settings ***
//	Resource    common.resource
//	Library     Collections
//
//	*** Variables ***
//	${GREETING}    Hello
//
//	*** Test Cases ***
//	Greet
//	    Say Hello    ${GREETING}
//
//	*** Keywords ***
//	Say Hello
//	    [Arguments]    ${message}
//	    Log    ${message}
//
// # Lines and cells
//
// [Split] breaks a line into [Token] cells, each carrying its absolute
// offset in code points. Whitespace at the start of a line yields an
// empty first cell, which marks a step of the current test case or
// keyword. A cell starting with '#' makes the rest of the line a comment.
// Backslash escapes are kept in the cell text; [Unescape] interprets
// them.
//
// A row may be continued on following lines that start with "..." in the
// first or, after an empty cell, the second column:
//
//	Documentation    First part
//	...              and the rest.
//
// # Classification
//
// [Parser.Parse] classifies every line with a [LineType] and every cell
// with an [ArgumentType], and builds the file's [Model]. The table a line
// belongs to decides how it is read; [Config] maps header names to
// tables. Malformed input never stops a parse. It is reported as
// [Diagnostic] values whose severity is configured per [Class]:
//
//	*** Variable ***
//	GREETING    Hello        # malformed-variable: missing ${ and }
//
//	*** Settings ***
//	Resource    a.resource
//	Resource    a.resource   # duplicate-import
//
// # Resolving definitions
//
// A [Resolver] finds the keywords, variables and test cases visible from
// a file by walking its imports breadth first: the file itself, then the
// resources, libraries and variable files it imports, then theirs.
// Libraries and variable files are not parsed; their names come from
// plain-text index files with one symbol per line. The walk is driven by
// a [Visitor], whose [Interest] decides when it stops. [FindDefinition]
// and [Complete] build hyperlinks and completion proposals on top of it.
//
// Keyword names may embed variables, as in "Select ${item} from list";
// [MatchKeyword] matches calls against such names. [VariableRegion]
// computes the part of a cell a variable proposal replaces.
package robotide
