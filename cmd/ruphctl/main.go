package main

import (
	"os"

	"github.com/ruphautomations/ruphctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
