package main

import (
	"os"

	"github.com/crumbworks/genchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
