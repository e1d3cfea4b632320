package main

import (
	"fmt"
	"os"

	"github.com/benresonance-star/Task-Checker-sub001/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
