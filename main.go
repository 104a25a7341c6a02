package main

import (
	"os"

	"spotube-downloader/cmd/spotube-downloader/commands"
	"spotube-downloader/internal/shared"
)

func main() {
	if err := commands.Execute(); err != nil {
		shared.ColorError.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
