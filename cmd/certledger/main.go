// Command certledger is the certificate ledger CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/certledger/internal/cli"
)

var version = "dev" // set by the linker

func main() {
	cmd := cli.NewRootCommand()
	cmd.Version = version

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
