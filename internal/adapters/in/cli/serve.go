package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/bnema/appupdate/internal/app"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the update service",
		Long: `Start the HTTP API. Configuration is read from the given YAML file,
or appupdate.yaml in the working directory, then overridden by APPUPDATE_*
environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return app.Run(ctx, configPath, Version)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd.OutOrStdout(), short)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")

	return cmd
}

func runVersion(out io.Writer, short bool) error {
	if short {
		return cliWriteLine(out, Version)
	}
	if err := cliWriteLine(out, cliRenderTitle("appupdate "+Version)); err != nil {
		return err
	}
	if err := cliWriteLine(out, cliRenderMeta("Commit:", Commit)); err != nil {
		return err
	}
	return cliWriteLine(out, cliRenderMeta("Build Date:", BuildDate))
}
