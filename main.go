package main

import (
	"os"

	"github.com/rafaavmsilva/Menu/src/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
