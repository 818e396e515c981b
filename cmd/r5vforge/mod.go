package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r5vforge/r5vforge/fsys"
	"github.com/r5vforge/r5vforge/manifest"
)

func newNewCmd(a *app) *cobra.Command {
	var info manifest.ModInfo

	cmd := &cobra.Command{
		Use:   "new [parent-dir]",
		Short: "Create an empty mod folder",
		Long: `Create <parent-dir>/<id> with the standard mod layout, mod.vdf,
manifest.json and a README. Fails when the folder already exists.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := a.cfg.OutputDir
			if len(args) == 1 {
				parent = args[0]
			}
			if parent == "" {
				parent = "."
			}
			c, err := a.compiler()
			if err != nil {
				return err
			}
			dir, err := c.CreateMod(cmd.Context(), parent, info)
			if err != nil {
				return &ExitError{Code: exitCode(err), Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ ")+"created "+PathStyle.Render(dir))
			return nil
		},
	}
	cmd.Flags().StringVar(&info.ModID, "id", "", "mod id, also the folder name")
	cmd.Flags().StringVar(&info.Name, "name", "", "display name")
	cmd.Flags().StringVar(&info.Author, "author", "", "author")
	cmd.Flags().StringVar(&info.Version, "mod-version", "1.0.0", "mod version")
	cmd.Flags().StringVar(&info.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <dir>",
		Short: "Show the file tree of a mod folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := fsys.Tree(a.fs, args[0])
			if err != nil {
				return &ExitError{Code: ExitPrecondition, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), TitleStyle.Render(args[0]))
			printTree(cmd.OutOrStdout(), items, 1)
			return nil
		},
	}
}

func printTree(w io.Writer, items []fsys.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, it := range items {
		if it.IsDir() {
			fmt.Fprintln(w, indent+PathStyle.Render(it.Name+"/"))
			printTree(w, it.Children, depth+1)
			continue
		}
		fmt.Fprintln(w, indent+it.Name)
	}
}
