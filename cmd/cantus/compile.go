package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ncarnahan/cantus/internal/compile"
	"github.com/ncarnahan/cantus/internal/logging"
)

func newCompileCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "compile <path>",
		Short:   "Compile an asset file or every asset under a folder",
		Example: "cantus compile assets --output build",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := compile.CompilePath(args[0], output, logging.Component(a.log, "compile"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %d asset(s) into %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output folder (must exist)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
