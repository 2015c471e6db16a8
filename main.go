package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	application := NewApp()
	cmd := BuildCLI(application)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
