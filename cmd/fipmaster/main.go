// Command fipmaster is the FIP master CLI: the example consumer of the
// dialogue engine in internal/master. Running it with no subcommand
// loads the project's .fip configuration, spawns every enabled module,
// performs the version handshake, and exits 0 on success or nonzero on
// any fatal handshake failure.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
