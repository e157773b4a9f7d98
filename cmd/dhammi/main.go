package main

import (
	"os"

	"github.com/ssism/dhammi/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
