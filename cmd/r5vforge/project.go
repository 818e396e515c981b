package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r5vforge/r5vforge/projectfile"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Convert project files between plain JSON and the compressed container",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pack <src.json> <dst" + projectfile.Extension + ">",
		Short: "Compress a plain JSON project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := projectfile.Pack(a.fs, args[0], args[1])
			if err != nil {
				return &ExitError{Code: ExitIO, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s packed %s: %d -> %d bytes\n",
				SuccessStyle.Render("✓"), PathStyle.Render(args[1]), info.OriginalSize, info.StoredSize)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unpack <src> <dst.json>",
		Short: "Write a project as indented plain JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := projectfile.Unpack(a.fs, args[0], args[1])
			if err != nil {
				return &ExitError{Code: ExitIO, Err: err}
			}
			from := "plain"
			if info.Compressed {
				from = "compressed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unpacked %s project into %s\n",
				SuccessStyle.Render("✓"), from, PathStyle.Render(args[1]))
			return nil
		},
	})
	return cmd
}
