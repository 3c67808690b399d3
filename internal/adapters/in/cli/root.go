// Package cli implements the CLI adapter for the update service.
// It provides Cobra commands that either serve the API or call a running
// instance through the remote client.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/appupdate/internal/adapters/in/cli/remote"
	"github.com/bnema/appupdate/internal/config"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const defaultServer = "http://localhost:8080"

// remoteOptions are the persistent flags shared by every client command.
type remoteOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func (o *remoteOptions) client() *remote.Client {
	return remote.NewClient(o.server,
		remote.WithToken(o.token),
		remote.WithTimeout(o.timeout),
	)
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &remoteOptions{}

	rootCmd := &cobra.Command{
		Use:   "appupdate",
		Short: "appupdate - update file store and manifest distribution",
		Long: `appupdate keeps a bounded set of uploaded update files and publishes
a single update manifest that clients poll to learn about newer versions.

Run "appupdate serve" to start the service. The files and manifest commands
talk to a running instance.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr(config.EnvPrefix+"SERVER", defaultServer), "Base URL of the service, including any root path")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(config.EnvPrefix+"API_KEY"), "Bearer token sent with requests")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Request timeout")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPingCmd(opts))
	rootCmd.AddCommand(newFilesCmd(opts))
	rootCmd.AddCommand(newManifestCmd(opts))

	return rootCmd
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		Commit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
