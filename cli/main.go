package main

import (
	"os"

	"github.com/thebadge/badgectl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
