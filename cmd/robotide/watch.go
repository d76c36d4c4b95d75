package main

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Check files again whenever they change",
		Long: `Watch checks every test and resource file below dir, which defaults
to the workspace root, and then checks each file again when it is
written. Hidden directories are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.root = args[0]
			}
			e, err := o.env(cmd)
			if err != nil {
				return err
			}
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			return e.watch(cmd.Context(), w, cmd.OutOrStdout())
		},
	}
}

// isTestFile reports whether name is a file watch checks.
func isTestFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".robot", ".resource", ".txt":
		return true
	}
	return false
}

// watch checks every file in the workspace, then rechecks files as w
// reports changes until ctx is done.
func (e *env) watch(ctx context.Context, w *fsnotify.Watcher, out io.Writer) error {
	if err := e.watchTree(ctx, w, out, "."); err != nil {
		return err
	}
	e.log.Info("watching", "dir", e.root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.log.Warn("watch error", "err", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			e.changed(ctx, w, out, ev)
		}
	}
}

// watchTree adds the directories below dir to w and checks the files in
// them.
func (e *env) watchTree(ctx context.Context, w *fsnotify.Watcher, out io.Writer, dir string) error {
	return fs.WalkDir(e.ws.FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return w.Add(filepath.Join(e.root, filepath.FromSlash(p)))
		}
		if isTestFile(p) {
			if _, err := e.check(ctx, out, p, p); err != nil {
				e.log.Warn("check failed", "file", p, "err", err)
			}
		}
		return nil
	})
}

func (e *env) changed(ctx context.Context, w *fsnotify.Watcher, out io.Writer, ev fsnotify.Event) {
	name, err := e.name(ev.Name)
	if err != nil {
		e.log.Debug("ignoring event", "event", ev, "err", err)
		return
	}
	e.log.Debug("event", "op", ev.Op, "file", name)

	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := e.watchTree(ctx, w, out, name); err != nil {
				e.log.Warn("watch failed", "dir", name, "err", err)
			}
			return
		}
	}
	if !isTestFile(name) {
		return
	}
	e.cache.Invalidate(name)
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return
	}
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
		if _, err := e.check(ctx, out, name, name); err != nil {
			e.log.Warn("check failed", "file", name, "err", err)
		}
	}
}
