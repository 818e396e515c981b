package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r5vforge/r5vforge/codegen"
)

func newCompileCmd(a *app) *cobra.Command {
	var outDir string
	var embed bool

	cmd := &cobra.Command{
		Use:   "compile <project>",
		Short: "Compile a project into a mod folder",
		Long: `Compile every script of a project and write the mod folder
<output>/<Author><Name>. The previous contents of that folder are removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0])
			if err != nil {
				return err
			}
			if embed {
				p.Settings.EmbedProject = true
			}
			c, err := a.compiler()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}

			res, err := c.Compile(cmd.Context(), p, outDir)
			w := cmd.OutOrStdout()
			if a.verbose {
				for _, f := range res.Written {
					fmt.Fprintln(w, "  "+PathStyle.Render(f))
				}
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("✗ ")+res.Message)
				return &ExitError{Code: exitCode(err), Err: err}
			}
			for path, ctx := range res.Contexts {
				a.logger.Debug("script context", "script", path, "when", ctx.When())
			}
			fmt.Fprintln(w, SuccessStyle.Render("✓ ")+res.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default from config output_dir)")
	cmd.Flags().BoolVar(&embed, "embed", false, "embed each script's graph in the generated file")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <project> <script>",
		Short: "Print the generated source of one script",
		Long:  `Generate one script, selected by ID or name, and print it without writing anything.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0])
			if err != nil {
				return err
			}
			script, ok := findScript(p, args[1])
			if !ok {
				return &ExitError{Code: ExitPrecondition, Err: fmt.Errorf("script %q not found", args[1])}
			}
			c, err := a.compiler()
			if err != nil {
				return err
			}

			r, err := c.Render(p.Settings, script)
			if err != nil {
				return &ExitError{Code: exitCode(err), Err: err}
			}
			for _, w := range r.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("warning: ")+w.String())
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Text)
			return nil
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project>",
		Short: "Check every graph of a project without generating files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			gen := codegen.New(cat, codegen.WithLogger(a.logger))

			w := cmd.OutOrStdout()
			failed := 0
			for _, s := range p.Scripts {
				warnings, err := gen.Validate(s.Nodes, s.Connections)
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s %s\n%s\n", ErrorStyle.Render("✗"), s.Name, err)
					continue
				}
				fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("✓"), s.Name)
				for _, warn := range warnings {
					fmt.Fprintln(w, "  "+WarningStyle.Render("warning: ")+warn.String())
				}
			}
			if failed > 0 {
				return &ExitError{Code: ExitGraph, Err: fmt.Errorf("%d of %d scripts have errors", failed, len(p.Scripts))}
			}
			return nil
		},
	}
}
