// Command sedifex-admin is the back-office CLI for a Sedifex deployment.
package main

import (
	"fmt"
	"os"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
