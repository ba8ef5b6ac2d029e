package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flint-lang/fip/pkg/fipmsg"
)

// newCompileCmd drives one compile round against every spawned module
// and reports whether all of them produced their objects cleanly.
func newCompileCmd() *cobra.Command {
	var target fipmsg.Target

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "ask every spawned module to compile its sources for a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := spawnSession()
			if err != nil {
				return err
			}
			defer m.Shutdown(fipmsg.KillFinish)

			ok, err := m.CompileRequest(target)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("compilation failed for target %s-%s-%s-%s",
					target.Arch, target.Vendor, target.Sys, target.ABI)
			}

			log.Info("all modules compiled cleanly for %s-%s-%s-%s",
				target.Arch, target.Vendor, target.Sys, target.ABI)
			return nil
		},
	}

	cmd.Flags().StringVar(&target.Arch, "arch", "x86_64", "target architecture")
	cmd.Flags().StringVar(&target.Sub, "sub", "", "target sub-architecture")
	cmd.Flags().StringVar(&target.Vendor, "vendor", "unknown", "target vendor")
	cmd.Flags().StringVar(&target.Sys, "sys", "linux", "target operating system")
	cmd.Flags().StringVar(&target.ABI, "abi", "gnu", "target ABI")
	return cmd
}
