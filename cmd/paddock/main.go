package main

import (
	"os"

	"github.com/paddockpicks/paddock/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
