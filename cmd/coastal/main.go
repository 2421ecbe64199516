package main

import (
	"os"

	"github.com/emmaarthur191/coastal-project-sub004/cmd/coastal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
