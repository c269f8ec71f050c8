package main

import (
	"os"

	"github.com/avaldes/gainers/cmd/gainers/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
