package main

import (
	"fmt"
	"os"

	"github.com/kilianp07/cleancharge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cleancharge:", err)
		os.Exit(1)
	}
}
