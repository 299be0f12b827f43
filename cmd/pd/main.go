package main

import (
	"os"

	"github.com/compilingdogs/pd/cli"
)

func main() {
	os.Exit(cli.Execute())
}
