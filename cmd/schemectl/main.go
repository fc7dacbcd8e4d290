package main

import (
	"fmt"
	"os"

	"schemematch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "schemectl:", err)
		os.Exit(1)
	}
}
