package main

import (
	"os"

	"github.com/copyleftdev/newtonkit/cmd/solvectl/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
