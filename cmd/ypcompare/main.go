package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cleared-dev/ypbank/internal/commands"
)

func main() {
	err := commands.NewCompareCommand().Execute()
	if err != nil && !errors.Is(err, commands.ErrDifferent) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(commands.ExitCode(err))
}
