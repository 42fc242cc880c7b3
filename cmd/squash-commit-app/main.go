// Package main is the squash-commit-app GitHub App: it rewrites the tip of
// single-commit pull requests so squash merges default to the pull request
// title.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
