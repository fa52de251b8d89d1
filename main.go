package main

import (
	"os"

	"github.com/jonesrussell/contactcrawl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
