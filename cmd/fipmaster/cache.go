package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// newCacheCmd exposes the bbolt-backed cache index (internal/fipcache):
// "fipmaster cache list" lists every recorded object artifact without
// scanning .fip/cache directly.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "inspect the compiled-object cache index",
	}
	cmd.AddCommand(newCacheListCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every recorded cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := openCacheIndex()
			if err != nil {
				return err
			}
			defer idx.Close()

			entries, err := idx.List()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Hash", "Module", "Compiled At"})
			for _, e := range entries {
				table.Append([]string{e.Hash, e.Module, e.CompiledAt.Format("2006-01-02T15:04:05Z07:00")})
			}
			table.Render()

			return nil
		},
	}
}
