// Command bookdesk runs the library: an HTTP server and one-shot administration commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bookdesk:", err)
		os.Exit(1)
	}
}
