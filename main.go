// The main package for the carfinder executable.
package main

import (
	"github.com/Shillz96/carfinderai/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
