// Command pivotql compiles declarative cube queries into MDX, runs them on
// an OLAP engine and prints the materialized tables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pivotql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
