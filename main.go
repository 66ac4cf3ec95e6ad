package main

import (
	"fmt"
	"os"

	"github.com/loggerson/loggerson/cli"
)

func main() {
	if err := cli.App.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error running CLI app:", err)
		os.Exit(1)
	}
}
