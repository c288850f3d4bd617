package main

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/cae/pkg/taxid"
	"github.com/spf13/cobra"
)

func newTaxIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxid",
		Short: "Spanish tax identifier tools",
	}
	cmd.AddCommand(newTaxIDValidateCommand())
	return cmd
}

// newTaxIDValidateCommand exits 0 when the identifier is valid and 1 otherwise
func newTaxIDValidateCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate <value>",
		Short: "Check a CIF, DNI or NIE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class := taxid.Class(strings.ToLower(kind))
			if !class.IsValid() {
				return fmt.Errorf("unknown kind %q, want company, person or any", kind)
			}

			k, valid := taxid.Check(args[0], class)
			result := "invalid"
			if valid {
				result = "valid"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", taxid.Normalize(args[0]), k, result)

			if !valid {
				return exitStatus(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(taxid.ClassAny), "company, person or any")
	return cmd
}
