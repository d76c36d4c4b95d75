package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const suiteRobot = `*** Settings ***
Resource    common.resource
Library     Collections

*** Variables ***
GREETING    Hello

*** Test Cases ***
Greet
    Say Hello    world
    Append To List    ${list}    x
`

const commonResource = `*** Variables ***
${NAME}    World

*** Keywords ***
Say Hello
    [Arguments]    ${name}
    Log    ${name}
`

// workspace writes files into a new directory and returns its path.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errb.String(), err
}

func TestCheck(t *testing.T) {
	dir := workspace(t, map[string]string{
		"suite.robot":     suiteRobot,
		"common.resource": commonResource,
		"warn.robot":      "*** Bogus ***\nanything\n",
	})
	suite := filepath.Join(dir, "suite.robot")

	out, _, err := run(t, "--root", dir, "check", suite)
	require.ErrorIs(t, err, errFailed)
	require.Equal(t, suite+":6:1: error: Variable name must start with ${ or @{ and end with }\n", out)

	warn := filepath.Join(dir, "warn.robot")
	out, _, err = run(t, "--root", dir, "check", warn)
	require.NoError(t, err)
	require.Equal(t, warn+":1:5: warning: Unknown table \"Bogus\"\n", out)
}

func TestCheckConfig(t *testing.T) {
	dir := workspace(t, map[string]string{
		"warn.robot":    "*** Bogus ***\n",
		"robotide.yaml": "severities:\n  unknown-table: error\n",
	})
	warn := filepath.Join(dir, "warn.robot")

	out, _, err := run(t, "--root", dir, "--config", filepath.Join(dir, "robotide.yaml"), "check", warn)
	require.ErrorIs(t, err, errFailed)
	require.Equal(t, warn+":1:5: error: Unknown table \"Bogus\"\n", out)

	out, _, err = run(t, "--root", dir, "--config", filepath.Join(dir, "missing.yaml"), "check", warn)
	require.Error(t, err)
	require.Empty(t, out)
}

func TestCheckOutsideRoot(t *testing.T) {
	dir := workspace(t, map[string]string{"a.robot": ""})
	other := workspace(t, map[string]string{"b.robot": ""})
	_, _, err := run(t, "--root", dir, "check", filepath.Join(other, "b.robot"))
	require.ErrorContains(t, err, "outside the workspace")
}

func TestFind(t *testing.T) {
	dir := workspace(t, map[string]string{
		"tests/suite.robot":       suiteRobot,
		"tests/common.resource":   commonResource,
		"index/Collections.index": "Append To List\nGet From Dictionary\n",
	})
	suite := filepath.Join(dir, "tests", "suite.robot")
	index := filepath.Join(dir, "index")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"keyword", []string{"find", suite, "say hello"}, "tests/common.resource:5:1: Say Hello\n"},
		{"variable", []string{"find", "--kind", "variable", suite, "${name}"}, "tests/common.resource:2:1: ${NAME}\n"},
		{"library", []string{"find", "--index", index, suite, "Append To List"}, "Library Collections: Append To List\n"},
		{"testcase", []string{"find", "--kind", "testcase", suite, "GREET"}, "tests/suite.robot:9:1: Greet\n"},
		{"all", []string{"find", "--all", "--index", index, suite}, "tests/common.resource:5:1: Say Hello\n" +
			"Library Collections: Append To List\n" +
			"Library Collections: Get From Dictionary\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"--root", dir}, tt.args...)...)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestFindErrors(t *testing.T) {
	dir := workspace(t, map[string]string{"suite.robot": suiteRobot})
	suite := filepath.Join(dir, "suite.robot")

	out, errOut, err := run(t, "--root", dir, "find", suite, "No Such Keyword")
	require.ErrorIs(t, err, errFailed)
	require.Empty(t, out)
	require.Contains(t, errOut, `keyword "No Such Keyword" not found`)

	_, _, err = run(t, "--root", dir, "find", "--kind", "macro", suite, "x")
	require.ErrorContains(t, err, "unknown kind")

	_, _, err = run(t, "--root", dir, "find", suite)
	require.ErrorContains(t, err, "needs a name")
}

const libdocPage = `<html><head><title>OperatingSystem</title></head><body><table>
<tr><td class="kw"><a>Create File</a></td></tr>
<tr><td class="kw"><a>Remove File</a></td></tr>
</table></body></html>`

func TestIndex(t *testing.T) {
	dir := workspace(t, map[string]string{
		"OperatingSystem.html": libdocPage,
		"empty.html":           "<html><body></body></html>",
	})
	out := filepath.Join(dir, "index")

	stdout, _, err := run(t, "index", "-o", out, filepath.Join(dir, "OperatingSystem.html"))
	require.NoError(t, err)
	want := filepath.Join(out, "OperatingSystem.index")
	require.Equal(t, want+"\n", stdout)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	require.Equal(t, "Create File\nRemove File\n", string(data))

	stdout, _, err = run(t, "index", "-o", out, "--name", "OS", filepath.Join(dir, "OperatingSystem.html"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "OS.index")+"\n", stdout)

	_, errOut, err := run(t, "index", "-o", out, filepath.Join(dir, "empty.html"))
	require.ErrorIs(t, err, errFailed)
	require.Contains(t, errOut, "no keywords")
}

// syncBuffer is a bytes.Buffer safe for use by a running command and the
// test reading its output.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func TestWatch(t *testing.T) {
	dir := workspace(t, map[string]string{
		"suite.robot":        suiteRobot,
		"common.resource":    commonResource,
		".git/skipped.robot": "*** Hidden ***\n",
		"notes.md":           "*** Not checked ***\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out, errb syncBuffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs([]string{"watch", dir})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	contains := func(b *syncBuffer, s string) func() bool {
		return func() bool { return strings.Contains(b.String(), s) }
	}
	require.Eventually(t, contains(&errb, "watching"), 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "suite.robot:6:1: error: Variable name must start with ${ or @{ and end with }\n", out.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.robot"), []byte("*** Bogus ***\n"), 0o644))
	require.Eventually(t, contains(&out, `new.robot:1:5: warning: Unknown table "Bogus"`), 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "x.resource"), []byte("*** Other ***\n"), 0o644))
	require.Eventually(t, contains(&out, `sub/x.resource:1:5: warning: Unknown table "Other"`), 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.NotContains(t, out.String(), "Hidden")
	require.NotContains(t, out.String(), "notes.md")
}
