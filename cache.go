package robotide

import (
	"context"
	"log/slog"
	"sync"
)

// Source provides parsed files to a [Resolver].
type Source interface {
	Get(ctx context.Context, name string) (*File, error)
}

// Cache is a [Source] that parses files from a [Workspace] and keeps the
// results until they are invalidated. Text set with Update overrides the
// workspace copy, the way an editor's unsaved buffer does.
//
// Every change bumps the file's revision. A parse that finishes after a
// newer change is returned to its caller but not stored. A *File handed
// out earlier stays valid; it is never modified.
type Cache struct {
	Workspace Workspace
	Parser    *Parser      // nil means NewParser(nil)
	Logger    *slog.Logger // optional

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	rev     int64
	file    *File // current parse, nil when stale
	last    *File // last successful parse
	text    string
	overlay bool
}

// NewCache returns a cache of files in ws.
func NewCache(ws Workspace, p *Parser) *Cache {
	return &Cache{Workspace: ws, Parser: p}
}

func (c *Cache) entry(name string) *cacheEntry {
	if c.entries == nil {
		c.entries = make(map[string]*cacheEntry)
	}
	e, ok := c.entries[name]
	if !ok {
		e = new(cacheEntry)
		c.entries[name] = e
	}
	return e
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Get returns the parse of the named file, parsing it if needed.
// A canceled parse is returned with Aborted set and is not cached.
func (c *Cache) Get(ctx context.Context, name string) (*File, error) {
	c.mu.Lock()
	e := c.entry(name)
	if e.file != nil {
		f := e.file
		c.mu.Unlock()
		return f, nil
	}
	rev, text, overlay := e.rev, e.text, e.overlay
	c.mu.Unlock()

	if !overlay {
		var err error
		text, _, err = c.Workspace.ReadFile(name)
		if err != nil {
			return nil, err
		}
	}
	p := c.Parser
	if p == nil {
		p = NewParser(nil)
	}
	f, err := p.Parse(ctx, name, text)
	if err != nil {
		c.logger().Debug("parse failed", "file", name, "err", err)
		return nil, err
	}
	if f.Aborted {
		return f, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e.rev == rev && c.entries[name] == e {
		e.file, e.last = f, f
		c.logger().Debug("parsed", "file", name, "rev", rev, "lines", len(f.Lines), "diagnostics", len(f.Diagnostics))
	}
	return f, nil
}

// Last returns the last successful parse of the named file, which may be
// older than the current text.
func (c *Cache) Last(name string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok || e.last == nil {
		return nil, false
	}
	return e.last, true
}

// Update sets the text of the named file, overriding the workspace copy
// until [Cache.Close] is called.
func (c *Cache) Update(name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(name)
	e.rev++
	e.file = nil
	e.text, e.overlay = text, true
}

// Close drops text set with Update so the workspace copy is used again.
func (c *Cache) Close(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(name)
	e.rev++
	e.file = nil
	e.text, e.overlay = "", false
}

// Invalidate marks the named file as changed in the workspace.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(name)
	e.rev++
	e.file = nil
}

// Revision returns the number of changes recorded for the named file.
func (c *Cache) Revision(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[name]; ok {
		return e.rev
	}
	return 0
}
