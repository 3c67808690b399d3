package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bnema/appupdate/internal/adapters/in/cli/remote"
	"github.com/bnema/appupdate/internal/domain"
)

type manifestClient interface {
	GetManifest(ctx context.Context, currentVersion string) (*domain.Manifest, error)
	SetManifest(ctx context.Context, version, downloadURL string) error
	DeleteManifest(ctx context.Context) error
}

type pingClient interface {
	Ping(ctx context.Context) error
}

func newManifestCmd(opts *remoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manage the published update manifest",
		Long: `Read, publish and clear the update manifest.

A published version must be strictly greater than the one it replaces.`,
	}

	cmd.AddCommand(newManifestGetCmd(opts))
	cmd.AddCommand(newManifestSetCmd(opts))
	cmd.AddCommand(newManifestDeleteCmd(opts))

	return cmd
}

func newManifestGetCmd(opts *remoteOptions) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the manifest, optionally as seen by a client on --current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifestGet(cmd.Context(), opts.client(), current, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Client's current version; only newer manifests are shown")

	return cmd
}

func newManifestSetCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <version> <url>",
		Short: "Publish a new manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifestSet(cmd.Context(), opts.client(), args[0], args[1], cmd.OutOrStdout())
		},
	}
}

func newManifestDeleteCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm"},
		Short:   "Clear the manifest",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifestDelete(cmd.Context(), opts.client(), cmd.OutOrStdout())
		},
	}
}

func newPingCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the service answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPing(cmd.Context(), opts.client(), opts.server, cmd.OutOrStdout())
		},
	}
}

func runManifestGet(ctx context.Context, client manifestClient, current string, out io.Writer) error {
	m, err := client.GetManifest(ctx, current)
	if err != nil {
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			if current != "" {
				return cliWriteLine(out, cliRenderMuted("No update newer than "+current))
			}
			return cliWriteLine(out, cliRenderMuted("No manifest published"))
		}
		return fmt.Errorf("failed to get manifest: %w", err)
	}

	if err := cliWriteLine(out, cliRenderMeta("Version:", m.Version)); err != nil {
		return err
	}
	return cliWriteLine(out, cliRenderMeta("URL:    ", m.URL))
}

func runManifestSet(ctx context.Context, client manifestClient, version, downloadURL string, out io.Writer) error {
	if err := client.SetManifest(ctx, version, downloadURL); err != nil {
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("version %s is not newer than the published manifest: %w", version, err)
		}
		return fmt.Errorf("failed to publish manifest: %w", err)
	}
	return cliWriteLine(out, cliRenderSuccess("Published "+version))
}

func runManifestDelete(ctx context.Context, client manifestClient, out io.Writer) error {
	if err := client.DeleteManifest(ctx); err != nil {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	return cliWriteLine(out, cliRenderSuccess("Manifest cleared"))
}

func runPing(ctx context.Context, client pingClient, server string, out io.Writer) error {
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("%s is not reachable: %w", server, err)
	}
	return cliWriteLine(out, cliRenderSuccess(server+" is up"))
}
