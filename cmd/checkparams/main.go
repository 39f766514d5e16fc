package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, errMismatches) {
		return 2
	}

	fmt.Fprintln(stderr, err)
	var argErr *argsError
	if errors.As(err, &argErr) {
		fmt.Fprint(stderr, rootCmd.UsageString())
	}
	return 1
}
