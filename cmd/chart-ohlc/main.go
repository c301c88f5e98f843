package main

import (
	"os"

	"github.com/ironsheep/chart-ohlc/cmd/chart-ohlc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
