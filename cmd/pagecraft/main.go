package main

import (
	"os"

	"github.com/pagecraft/pagecraft/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
