package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harrison/treegrep/internal/cmd"
)

// Version is the current version of the treegrep application
const Version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd.Version = Version
	rootCmd := cmd.NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cmd.ErrSearchFailed) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return cmd.ExitCode(err)
}
