// Package main is the entry point for the ral-sponsors CLI.
package main

import (
	"os"

	"github.com/rotatingartdev/ral-sponsors/cmd/ral-sponsors/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
