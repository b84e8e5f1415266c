package main

import (
	"os"

	"github.com/ravello-tools/ravello-rtc/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
