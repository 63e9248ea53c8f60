package main

import (
	"os"

	"StockLens/cmd/stocklens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
