package main

import (
	"fmt"
	"os"

	"github.com/cleared-dev/ypbank/internal/commands"
)

func main() {
	if err := commands.NewConvertCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(commands.ExitCode(err))
	}
}
