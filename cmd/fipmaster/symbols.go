package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/flint-lang/fip/pkg/fipmsg"
	"github.com/flint-lang/fip/pkg/fipsig"
)

// newSymbolsCmd implements a one-shot development query: spawn the
// configured modules, ask whether any of them provides a function of
// the given name with no arguments or returns, and print the result as
// a table.
func newSymbolsCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "ask every spawned module whether it provides a given function symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			m, err := spawnSession()
			if err != nil {
				return err
			}
			defer m.Shutdown(fipmsg.KillFinish)

			sym := fipmsg.Symbol{Type: fipmsg.SymFunction, Fn: &fipsig.FnSig{Name: name}}
			found, err := m.SymbolRequest(sym)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Symbol", "Found"})
			table.Append([]string{name, fmt.Sprintf("%v", found)})
			table.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "function name to query, with no arguments or returns")
	return cmd
}
