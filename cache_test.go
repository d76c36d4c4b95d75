package robotide

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

// countingWorkspace counts file reads and runs onRead during each one.
type countingWorkspace struct {
	DirWorkspace
	reads  map[string]int
	onRead func(name string)
}

func newCountingWorkspace(files map[string]string) *countingWorkspace {
	m := fstest.MapFS{}
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return &countingWorkspace{DirWorkspace: DirWorkspace{FS: m}, reads: map[string]int{}}
}

func (w *countingWorkspace) ReadFile(name string) (string, string, error) {
	w.reads[name]++
	if w.onRead != nil {
		w.onRead(name)
	}
	return w.DirWorkspace.ReadFile(name)
}

func (w *countingWorkspace) set(name, data string) {
	w.FS.(fstest.MapFS)[name] = &fstest.MapFile{Data: []byte(data)}
}

const diskKeywords = "*** Keywords ***\nFrom Disk\n    No Operation\n"

func keywordNames(f *File) []string {
	var names []string
	for k := range f.Model.Keywords.All() {
		names = append(names, k.Value)
	}
	return names
}

func TestCacheGet(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)
	ctx := context.Background()

	f1, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	f2, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Error("second Get parsed again")
	}
	if n := ws.reads["a.resource"]; n != 1 {
		t.Errorf("read %d times, want 1", n)
	}

	_, err = c.Get(ctx, "missing.resource")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestCacheOverlay(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)
	ctx := context.Background()

	c.Update("a.resource", "*** Keywords ***\nFrom Editor\n    No Operation\n")
	if rev := c.Revision("a.resource"); rev != 1 {
		t.Errorf("revision = %d, want 1", rev)
	}
	f, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if got := keywordNames(f); len(got) != 1 || got[0] != "From Editor" {
		t.Errorf("keywords = %q, want the overlay's", got)
	}
	if n := ws.reads["a.resource"]; n != 0 {
		t.Errorf("overlay read the workspace %d times", n)
	}

	// An overlay need not exist in the workspace.
	c.Update("new.robot", "*** Test Cases ***\nUnsaved\n")
	if _, err := c.Get(ctx, "new.robot"); err != nil {
		t.Errorf("Get(unsaved overlay): %v", err)
	}

	c.Close("a.resource")
	if rev := c.Revision("a.resource"); rev != 2 {
		t.Errorf("revision = %d, want 2", rev)
	}
	f, err = c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if got := keywordNames(f); len(got) != 1 || got[0] != "From Disk" {
		t.Errorf("keywords = %q after Close, want the workspace's", got)
	}
}

func TestCacheInvalidate(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)
	ctx := context.Background()

	old, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	ws.set("a.resource", "*** Keywords ***\nChanged\n    No Operation\n")
	c.Invalidate("a.resource")

	f, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if f == old {
		t.Fatal("Get returned the stale parse")
	}
	if got := keywordNames(f); len(got) != 1 || got[0] != "Changed" {
		t.Errorf("keywords = %q", got)
	}
	if got := keywordNames(old); got[0] != "From Disk" {
		t.Errorf("earlier parse changed to %q", got)
	}
}

func TestCacheLast(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)

	if _, ok := c.Last("a.resource"); ok {
		t.Error("Last before any parse")
	}
	f, err := c.Get(context.Background(), "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	c.Update("a.resource", "*** Keywords ***\nHalf typed")
	last, ok := c.Last("a.resource")
	if !ok || last != f {
		t.Errorf("Last = %v, %v; want the previous parse", last, ok)
	}
}

func TestCacheCanceledParseNotStored(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f, err := c.Get(ctx, "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Aborted {
		t.Error("parse with a canceled context not marked aborted")
	}
	if _, ok := c.Last("a.resource"); ok {
		t.Error("aborted parse was stored")
	}

	f, err = c.Get(context.Background(), "a.resource")
	if err != nil {
		t.Fatal(err)
	}
	if f.Aborted || len(keywordNames(f)) != 1 {
		t.Errorf("Get after cancellation = %+v", f)
	}
}

func TestCacheStaleParseNotStored(t *testing.T) {
	ws := newCountingWorkspace(map[string]string{"a.resource": diskKeywords})
	c := NewCache(ws, nil)
	ctx := context.Background()

	// The file changes while it is being read.
	ws.onRead = func(name string) {
		ws.onRead = nil
		c.Invalidate(name)
	}
	if _, err := c.Get(ctx, "a.resource"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Last("a.resource"); ok {
		t.Error("parse of an outdated revision was stored")
	}
	if _, err := c.Get(ctx, "a.resource"); err != nil {
		t.Fatal(err)
	}
	if n := ws.reads["a.resource"]; n != 2 {
		t.Errorf("read %d times, want 2", n)
	}
}
