package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/attreval/internal/app"
)

func newSanityCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity <test.csv> <output.csv>",
		Short: "Check an output file against its test file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.New(service.WithConfig(c.cfg))
			rep, err := svc.Sanity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			c.printReport(rep.Missing, rep.Extra)
			fmt.Fprintf(c.stdout, "Parsing successful for file: %s\n", args[1])
			return nil
		},
	}
}

func (c *cli) printReport(missing, extra []string) {
	if len(missing) > 0 {
		fmt.Fprintf(c.stdout, "Missing index in test file: %s\n", strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		fmt.Fprintf(c.stdout, "Extra index in test file: %s\n", strings.Join(extra, ", "))
	}
}
