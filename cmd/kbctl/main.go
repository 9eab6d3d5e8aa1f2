// Command kbctl manages the advice knowledge base and runs the scoring and
// analysis flows from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
