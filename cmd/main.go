package main

import (
	"os"

	"github.com/1KHA/daralhikmajudge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
