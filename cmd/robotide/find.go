package main

import (
	"fmt"
	"io"

	"blake.io/robotide"
	"github.com/spf13/cobra"
)

var kinds = map[string]robotide.LineType{
	"keyword":  robotide.LineKeywordBegin,
	"variable": robotide.LineVariableTable,
	"testcase": robotide.LineTestcaseBegin,
}

func newFindCommand(o *options) *cobra.Command {
	var (
		kind string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "find file [name]",
		Short: "Print the definition a name resolves to",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lt, ok := kinds[kind]
			if !ok {
				return fmt.Errorf("unknown kind %q: want keyword, variable or testcase", kind)
			}
			if !all && len(args) != 2 {
				return fmt.Errorf("find needs a name unless --all is given")
			}
			e, err := o.env(cmd)
			if err != nil {
				return err
			}
			name, err := e.name(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if all {
				for _, d := range robotide.FindAll(cmd.Context(), e.resolver, name, lt) {
					printDefinition(w, d)
				}
				return nil
			}
			d, ok := robotide.FindDefinition(cmd.Context(), e.resolver, name, lt, args[1])
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %q not found\n", kind, args[1])
				return errFailed
			}
			printDefinition(w, d)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "keyword", "what to find: keyword, variable or testcase")
	cmd.Flags().BoolVar(&all, "all", false, "print every definition visible from the file")
	return cmd
}

// printDefinition prints where d is defined: a position for definitions
// in files, the library or variable file for indexed symbols.
func printDefinition(w io.Writer, d robotide.Definition) {
	if d.File == nil {
		fmt.Fprintf(w, "%v: %s\n", d.Node, d.Name.Value)
		return
	}
	col := d.Name.Start - d.Line.Offset + 1
	fmt.Fprintf(w, "%s:%d:%d: %s\n", d.File.Name, d.Line.Number, col, d.Name.Value)
}
