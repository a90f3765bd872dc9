// Command poundwave runs the reverse-proxy load balancer, or validates a
// config file without starting it. Command layout grounded on
// docker-compose's cli/cmd/compose package (root cobra command plus
// subcommands, pflag-bound options).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "poundwave",
		Short: "A reverse-proxy load balancer",
	}
	root.AddCommand(runCommand())
	root.AddCommand(checkCommand())
	return root
}
