package main

import (
	"os"

	"github.com/biosimlabs/textode/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
