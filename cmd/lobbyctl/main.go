// Command lobbyctl inspects generated lobbies without a window: it prints
// layouts and colliders, validates scene files, serves the inspection API
// and runs a terminal walkthrough.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
