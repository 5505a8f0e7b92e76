// sdnctl ingests sanctions list publications and screens names from the
// command line.
package main

import (
	"os"

	"sdnscreen/cmd/sdnctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
