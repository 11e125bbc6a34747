package main

import (
	"os"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/cli"
)

func main() {
	if err := cli.New(os.Stdin, os.Stdout).Run(); err != nil {
		logger.Error.Fatalf("cgpa calculator failed: %v", err)
	}
}
