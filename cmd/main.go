package main

import (
	"os"

	"github.com/Vasu1712/scenyx-studio/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
