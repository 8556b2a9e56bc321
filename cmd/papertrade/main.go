package main

import (
	"os"

	"papertrade/internal/paperctl"
	"papertrade/internal/paperd"
)

// Version is injected by build scripts via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	args := os.Args[1:]
	if shouldRouteToCtl(args) {
		os.Exit(paperctl.Run(args))
	}
	os.Exit(paperd.Run(args))
}

func shouldRouteToCtl(args []string) bool {
	for _, a := range args {
		if a == "" {
			continue
		}
		if a == "-scan" || a == "--scan" || a == "-backtest" || a == "--backtest" {
			return true
		}
	}
	return false
}
