package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blake.io/robotide/libdoc"
	"github.com/spf13/cobra"
)

func newIndexCommand(o *options) *cobra.Command {
	var (
		out  string
		opts libdoc.Options
	)
	cmd := &cobra.Command{
		Use:   "index [-o dir] libdoc.html...",
		Short: "Write keyword index files from libdoc HTML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Name != "" && len(args) > 1 {
				return errors.New("--name needs a single input file")
			}
			e, err := o.env(cmd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			failed := false
			for _, p := range args {
				lib, err := readLibdoc(p, opts)
				if errors.Is(err, libdoc.ErrNoKeywords) {
					e.log.Warn("no keywords", "file", p)
					failed = true
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				dst := filepath.Join(out, lib.IndexName())
				if err := writeIndex(dst, lib); err != nil {
					return err
				}
				e.log.Debug("wrote index", "library", lib.Name, "keywords", len(lib.Keywords), "file", dst)
				fmt.Fprintln(cmd.OutOrStdout(), dst)
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", ".", "output `dir`")
	cmd.Flags().StringVar(&opts.Selector, "selector", "", "CSS `selector` of keyword names (default "+libdoc.DefaultSelector+")")
	cmd.Flags().StringVar(&opts.Name, "name", "", "library `name` instead of the one in the page")
	return cmd
}

func readLibdoc(name string, opts libdoc.Options) (*libdoc.Library, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return libdoc.Read(f, opts)
}

func writeIndex(name string, lib *libdoc.Library) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := lib.WriteIndex(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
