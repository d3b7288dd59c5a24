package main

import (
	"os"

	"timscompare/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
