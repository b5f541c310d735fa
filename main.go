// gh-search searches GitHub code and repositories and ranks the combined results.
package main

import (
	"fmt"
	"os"

	"github.com/jparise/gh-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
