package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bnema/appupdate/internal/domain"
)

type filesClient interface {
	ListFiles(ctx context.Context) ([]domain.FileRecord, error)
	GetFileInfo(ctx context.Context, id string) (*domain.FileRecord, error)
	UploadFile(ctx context.Context, path, comment string) (*domain.FileRecord, error)
	DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error)
	DeleteFile(ctx context.Context, id string) error
}

var filesTableHeader = []string{"ID", "NAME", "SIZE", "CREATED", "COMMENT"}

func newFilesCmd(opts *remoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"file"},
		Short:   "Manage stored update files",
		Long: `Upload, inspect, download and delete update files on a running service.

Uploading beyond the configured capacity evicts the oldest files.`,
	}

	cmd.AddCommand(newFilesListCmd(opts))
	cmd.AddCommand(newFilesInfoCmd(opts))
	cmd.AddCommand(newFilesUploadCmd(opts))
	cmd.AddCommand(newFilesDownloadCmd(opts))
	cmd.AddCommand(newFilesDeleteCmd(opts))

	return cmd
}

func newFilesListCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored files, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilesList(cmd.Context(), opts.client(), cmd.OutOrStdout())
		},
	}
}

func newFilesInfoCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show metadata for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilesInfo(cmd.Context(), opts.client(), args[0], cmd.OutOrStdout())
		},
	}
}

func newFilesUploadCmd(opts *remoteOptions) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilesUpload(cmd.Context(), opts.client(), args[0], comment, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Comment stored with the file")

	return cmd
}

func newFilesDownloadCmd(opts *remoteOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a file's content",
		Long:  `Download a file's content to --output, or to stdout when --output is "-".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilesDownload(cmd.Context(), opts.client(), args[0], output, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Destination file")

	return cmd
}

func newFilesDeleteCmd(opts *remoteOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilesDelete(cmd.Context(), opts.client(), args[0], cmd.OutOrStdout())
		},
	}
}

func runFilesList(ctx context.Context, client filesClient, out io.Writer) error {
	files, err := client.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) == 0 {
		return cliWriteLine(out, cliRenderMuted("No files stored"))
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.ID,
			orDash(f.Name),
			formatFileSize(f.Size),
			formatCreatedAt(f.CreatedAt),
			orDash(f.Comment),
		})
	}

	if err := cliWriteTable(out, filesTableHeader, rows); err != nil {
		return err
	}
	return cliWritef(out, "\nTotal files: %d\n", len(files))
}

func runFilesInfo(ctx context.Context, client filesClient, id string, out io.Writer) error {
	f, err := client.GetFileInfo(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get file %s: %w", id, err)
	}
	return writeFileRecord(out, f)
}

func runFilesUpload(ctx context.Context, client filesClient, path, comment string, out io.Writer) error {
	f, err := client.UploadFile(ctx, path, comment)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
	}
	if err := cliWriteLine(out, cliRenderSuccess("Uploaded "+filepath.Base(path))); err != nil {
		return err
	}
	return writeFileRecord(out, f)
}

func runFilesDownload(ctx context.Context, client filesClient, id, output string, stdout, stderr io.Writer) error {
	if output == "-" || output == "" {
		_, err := client.DownloadFile(ctx, id, stdout)
		if err != nil {
			return fmt.Errorf("failed to download file %s: %w", id, err)
		}
		return nil
	}

	tmp := output + ".part"
	f, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, err := client.DownloadFile(ctx, id, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to download file %s: %w", id, err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	return cliWriteLine(stderr, cliRenderSuccess(fmt.Sprintf("Saved %s (%s)", output, humanize.Bytes(uint64(n)))))
}

func runFilesDelete(ctx context.Context, client filesClient, id string, out io.Writer) error {
	if err := client.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	return cliWriteLine(out, cliRenderSuccess("Deleted "+id))
}

func writeFileRecord(out io.Writer, f *domain.FileRecord) error {
	lines := []string{
		cliRenderMeta("ID:     ", f.ID),
		cliRenderMeta("Name:   ", orDash(f.Name)),
		cliRenderMeta("Size:   ", formatFileSize(f.Size)),
		cliRenderMeta("Created:", f.CreatedAt.Format(time.RFC3339)),
		cliRenderMeta("Comment:", orDash(f.Comment)),
	}
	for _, l := range lines {
		if err := cliWriteLine(out, l); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatFileSize(size *int64) string {
	if size == nil || *size < 0 {
		return "-"
	}
	return humanize.Bytes(uint64(*size))
}

func formatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
