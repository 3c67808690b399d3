// Package cmd is the entry point shared by the appupdate binary.
package cmd

import (
	"context"
	"os"

	"github.com/bnema/appupdate/internal/adapters/in/cli"
)

// ExecuteCLI runs the root command with the given build information and
// exits non-zero on failure.
func ExecuteCLI(build, commit, date string) {
	cli.SetVersionInfo(build, commit, date)
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
