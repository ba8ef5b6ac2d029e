package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the FIP protocol version this binary advertises",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("FIP v%d.%d.%d\n", protocolVersion.Major, protocolVersion.Minor, protocolVersion.Patch)
			return nil
		},
	}
}
