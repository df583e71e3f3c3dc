package main

import (
	"os"

	"github.com/anime-shed/image-quality-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
