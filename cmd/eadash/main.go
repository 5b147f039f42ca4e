package main

import (
	"os"

	"github.com/rustyeddy/eadash/cmd/eadash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
