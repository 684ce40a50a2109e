package main

import (
	"os"

	"github.com/shiplog-io/shiplog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
