// Command pagereplace applies saved find/replace rules to the editable fields
// of HTML pages, from the system tray or the command line.
package main

import (
	"fmt"
	"os"
)

const version = "v0.3.0"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
