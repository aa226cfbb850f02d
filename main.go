package main

import (
	"fmt"
	"os"

	"github.com/Bardakor/Auction-House/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
