// Command machete parses, checks, translates and archives X12 837 claim
// interchanges.
package main

import (
	"fmt"
	"os"

	"github.com/GeekSage/Machete/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
