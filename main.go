package main

import (
	"os"

	"github.com/theapemachine/dice-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
