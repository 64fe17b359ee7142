package main

import (
	"os"

	"github.com/MD-Studio/studiobuild/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
