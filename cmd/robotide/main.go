/*
Command robotide checks tabular test files and looks up definitions
across their imports.

# Installation

	go install blake.io/robotide/cmd/robotide@latest

# Usage

	robotide check [flags] file...
	robotide find [flags] file name
	robotide index [-o dir] libdoc.html...
	robotide watch [flags] [dir]

Check prints one line per diagnostic:

	tests/login.robot:12:5: warning: Unknown setting "Setup"

and exits with status 1 if any diagnostic has error severity.

Find prints the definition a keyword, variable or test case name
resolves to from the given file, or with --all every definition of that
kind the file can see:

	robotide find --kind keyword tests/login.robot "Open Login Page"

Index reads HTML documentation written by the libdoc tool and writes the
<library>.index files that find, watch and robotlsp read from --index.

Watch checks every .robot, .resource and .txt file below dir and checks
each again when it changes, until interrupted.

# Configuration

The YAML file given with --config changes table names, diagnostic
severities, which keywords take keyword names as arguments, and the
libraries every file imports implicitly:

	tables:
	  Testfälle: testcase
	severities:
	  ignored-line: ignore
	  unknown-setting: error
	keywordArguments:
	  Wait Until Keyword Succeeds: 2
	implicitLibraries: [BuiltIn, Easter]

Every key is optional and extends the defaults.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"blake.io/robotide"
	"github.com/spf13/cobra"
)

// errFailed reports failure after the details have been printed.
var errFailed = errors.New("failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "robotide: %v\n", err)
		}
		os.Exit(1)
	}
}

// options holds the flags shared by all subcommands.
type options struct {
	root    string
	index   string
	config  string
	verbose bool
}

func newRootCommand() *cobra.Command {
	o := new(options)
	cmd := &cobra.Command{
		Use:           "robotide",
		Short:         "Check tabular test files and find definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&o.root, "root", ".", "workspace root `dir`; imports may not leave it")
	pf.StringVar(&o.index, "index", "", "`dir` holding library and variable file index files")
	pf.StringVar(&o.config, "config", "", "YAML configuration `file`")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log debug messages to stderr")

	cmd.AddCommand(
		newCheckCommand(o),
		newFindCommand(o),
		newIndexCommand(o),
		newWatchCommand(o),
	)
	return cmd
}

// env is what a subcommand needs to parse and resolve files.
type env struct {
	root     string // absolute
	ws       *robotide.DirWorkspace
	cfg      *robotide.Config
	log      *slog.Logger
	cache    *robotide.Cache
	resolver *robotide.Resolver
}

func (o *options) env(cmd *cobra.Command) (*env, error) {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg := robotide.DefaultConfig()
	if o.config != "" {
		f, err := os.Open(o.config)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cfg, err = robotide.LoadConfig(f); err != nil {
			return nil, fmt.Errorf("%s: %w", o.config, err)
		}
	}

	root, err := filepath.Abs(o.root)
	if err != nil {
		return nil, err
	}
	ws := &robotide.DirWorkspace{FS: os.DirFS(root)}
	if o.index != "" {
		ws.Index = os.DirFS(o.index)
	}
	cache := robotide.NewCache(ws, robotide.NewParser(cfg))
	cache.Logger = log
	return &env{
		root:  root,
		ws:    ws,
		cfg:   cfg,
		log:   log,
		cache: cache,
		resolver: &robotide.Resolver{
			Source:    cache,
			Workspace: ws,
			Config:    cfg,
			Logger:    log,
		},
	}, nil
}

// name returns the workspace name of the file at path p.
func (e *env) name(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(e.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the workspace %s", p, e.root)
	}
	return filepath.ToSlash(rel), nil
}

// check parses the named file and prints its diagnostics, labeled with
// display. It reports whether any has error severity.
func (e *env) check(ctx context.Context, w io.Writer, name, display string) (bool, error) {
	f, err := e.cache.Get(ctx, name)
	if err != nil {
		return false, err
	}
	if f.Aborted {
		return false, ctx.Err()
	}
	failed := false
	for _, d := range f.Diagnostics {
		if d.Severity == robotide.SeverityIgnore {
			continue
		}
		col := d.Start + 1
		if d.Line >= 1 && d.Line <= len(f.Lines) {
			col -= f.Lines[d.Line-1].Offset
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", display, d.Line, col, d.Severity, d.Message)
		if d.Severity == robotide.SeverityError {
			failed = true
		}
	}
	return failed, nil
}

func newCheckCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check file...",
		Short: "Print the diagnostics of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.env(cmd)
			if err != nil {
				return err
			}
			failed := false
			for _, p := range args {
				name, err := e.name(p)
				if err != nil {
					return err
				}
				bad, err := e.check(cmd.Context(), cmd.OutOrStdout(), name, p)
				if err != nil {
					return err
				}
				failed = failed || bad
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
}
