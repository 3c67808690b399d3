package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	titleColor   = color.New(color.Bold, color.FgCyan)
	mutedColor   = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
	successColor = color.New(color.FgGreen)
)

var cliWriteLine = func(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

var cliWritef = func(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func cliRenderTitle(msg string) string {
	return titleColor.Sprint(msg)
}

func cliRenderMuted(msg string) string {
	return mutedColor.Sprint(msg)
}

func cliRenderMeta(label, value string) string {
	return boldColor.Sprint(label) + " " + mutedColor.Sprint(value)
}

func cliRenderSuccess(msg string) string {
	return successColor.Sprint("✓ " + msg)
}

// cliWriteTable writes tab-aligned rows under a header.
func cliWriteTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := cliWriteLine(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cliWriteLine(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
