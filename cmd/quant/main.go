package main

import (
	"os"

	"github.com/wonny/signalengine/cmd/quant/commands"
)

// main is the entry point of the signalengine CLI: go run ./cmd/quant [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
