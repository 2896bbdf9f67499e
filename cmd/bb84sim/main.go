// bb84sim runs simulated BB84 key exchanges, benchmarks them across parameter
// grids, and keeps a history of past runs.
package main

import (
	"os"

	"github.com/alan-christopher/bb84sim/cmd/bb84sim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
