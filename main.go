// The main package for the pnpharvest executable.
package main

import (
	"github.com/pnpdata/harvester/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
