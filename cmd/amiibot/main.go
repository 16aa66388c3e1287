// Package main is the entry point for amiibot.
package main

import (
	"os"

	"github.com/ecoppen/amiibot/cmd/amiibot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
