// Command caseload is the command-line client for the shelter API.
package main

import (
	"os"

	"github.com/mesh-intelligence/caseload/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
