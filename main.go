package main

import (
	"os"

	"github.com/spigell/ad-targeter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
