// Command metawhere compiles declarative queries over a CUE table schema
// to SQL and runs them against SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/BearerPipelineTest/meta-where/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "metawhere:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
