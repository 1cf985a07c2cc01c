package main

import (
	"os"

	"github.com/logpress/logpress/cmd/logpress/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
