// Package main is the entry point for the querypilot CLI binary.
package main

import (
	"os"

	cli "querypilot/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
