// Plexus is a viewer for attribution graphs: load a graph from a JSON file
// or a reconstruction service, explore it interactively, and export static
// snapshots.
package main

import (
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
