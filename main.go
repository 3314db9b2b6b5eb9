package main

import (
	"os"

	"github.com/spigell/seed-pitcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
