package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/flint-lang/fip/internal/master"
	"github.com/flint-lang/fip/pkg/fipmsg"
)

// newTagsCmd implements the tag_request development query, printing
// every symbol the unique owning module streams back as a table.
func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags <tag>",
		Short: "collect every symbol tagged <tag> from its unique owning module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]

			m, err := spawnSession()
			if err != nil {
				return err
			}
			defer m.Shutdown(fipmsg.KillFinish)

			status, symbols, err := m.TagRequest(tag)
			if err != nil && status != master.TagFaulty {
				return err
			}

			switch status {
			case master.TagUnknownTag:
				return fmt.Errorf("tag %q is not provided by any module", tag)
			case master.TagAmbiguousTag:
				return fmt.Errorf("tag %q is provided by more than one module", tag)
			case master.TagFaulty:
				fmt.Fprintf(os.Stderr, "warning: tag stream for %q ended early: %v\n", tag, err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Kind", "Name"})
			for _, sym := range symbols {
				table.Append([]string{symbolKind(sym), symbolName(sym)})
			}
			table.Render()

			return nil
		},
	}

	return cmd
}

func symbolKind(sym fipmsg.Symbol) string {
	switch sym.Type {
	case fipmsg.SymFunction:
		return "function"
	case fipmsg.SymData:
		return "data"
	case fipmsg.SymEnum:
		return "enum"
	default:
		return "unknown"
	}
}

func symbolName(sym fipmsg.Symbol) string {
	switch sym.Type {
	case fipmsg.SymFunction:
		if sym.Fn != nil {
			return sym.Fn.Name
		}
	case fipmsg.SymData:
		if sym.Data != nil {
			return sym.Data.Name
		}
	case fipmsg.SymEnum:
		if sym.Enum != nil {
			return sym.Enum.Name
		}
	}
	return ""
}
