// Package main is the rag CLI entry point.
package main

import (
	"os"

	"github.com/remixer1943/Ai/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
