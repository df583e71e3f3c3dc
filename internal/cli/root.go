package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// NewRootCommand builds the imgquality command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "imgquality",
		Short: "Reference-free image quality scoring",
		Long: `imgquality scores images from 0 to 100 on resolution, sharpness,
exposure and color depth, and combines them into one quality score.

Inputs may be local paths, file:// URLs, http(s) URLs, az://container/blob
locators or data: URIs.`,
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(versionLine() + "\n")
	root.AddCommand(newScoreCommand(), newVersionCommand())
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionLine())
		},
	}
}

func versionLine() string {
	return fmt.Sprintf("imgquality %s (%s/%s, %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
