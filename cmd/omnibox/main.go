package main

import (
	"context"
	"os"

	"omnibox/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
